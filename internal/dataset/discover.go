package dataset

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

var shardRegexp = regexp.MustCompile(`^shard-[0-9]{6,}\.tar$`)

// DiscoverShards returns the shard TAR files beneath root in lexical order. A
// root that is itself a shard file is returned as is.
func DiscoverShards(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, "discover shards")
	}
	if !info.IsDir() {
		if shardRegexp.MatchString(filepath.Base(root)) {
			return []string{root}, nil
		}
		return nil, errors.Errorf("discover shards: %s is neither a directory nor a shard", root)
	}

	entries := make([]string, 0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if shardRegexp.MatchString(d.Name()) {
			entries = append(entries, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "discover shards")
	}
	sort.Strings(entries)
	return entries, nil
}

// DiscoverByRoot scans each root independently. Roots without shards are an
// error.
func DiscoverByRoot(roots []string) (map[string][]string, error) {
	if len(roots) == 0 {
		return nil, errors.New("discover shards: no data roots")
	}
	result := make(map[string][]string, len(roots))
	for _, root := range roots {
		shards, err := DiscoverShards(root)
		if err != nil {
			return nil, err
		}
		if len(shards) == 0 {
			return nil, errors.Errorf("discover shards: no shards under %s", root)
		}
		result[root] = shards
	}
	return result, nil
}
