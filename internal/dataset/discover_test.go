package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverShardsBasic(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "shard-000000.tar"))
	mustWrite(t, filepath.Join(dir, "nested", "shard-000001.tar"))
	mustWrite(t, filepath.Join(dir, "ignore.txt"))

	shards, err := DiscoverShards(dir)
	if err != nil {
		t.Fatalf("DiscoverShards error: %v", err)
	}
	want := []string{
		filepath.Join(dir, "nested", "shard-000001.tar"),
		filepath.Join(dir, "shard-000000.tar"),
	}
	if len(shards) != len(want) {
		t.Fatalf("expected %d shards, got %d", len(want), len(shards))
	}
	for i, shard := range want {
		if shards[i] != shard {
			t.Fatalf("shard[%d]=%s want %s", i, shards[i], shard)
		}
	}
}

func TestDiscoverShardsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shard-000042.tar")
	mustWrite(t, path)
	shards, err := DiscoverShards(path)
	if err != nil {
		t.Fatalf("DiscoverShards error: %v", err)
	}
	if len(shards) != 1 || shards[0] != path {
		t.Fatalf("unexpected shards %v", shards)
	}
}

func TestDiscoverByRootRequiresShards(t *testing.T) {
	withShard := t.TempDir()
	mustWrite(t, filepath.Join(withShard, "shard-000000.tar"))
	empty := t.TempDir()

	if _, err := DiscoverByRoot([]string{withShard, empty}); err == nil {
		t.Fatal("expected error for a root without shards")
	}
	if _, err := DiscoverByRoot(nil); err == nil {
		t.Fatal("expected error for no roots")
	}
	got, err := DiscoverByRoot([]string{withShard})
	if err != nil {
		t.Fatalf("DiscoverByRoot: %v", err)
	}
	if len(got[withShard]) != 1 {
		t.Fatalf("unexpected result %v", got)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
