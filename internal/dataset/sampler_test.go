package dataset

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestBuildRoundRobinOrderDeterministic(t *testing.T) {
	roots := map[string][]string{
		"/rootA": {"/rootA/shard-000000.tar", "/rootA/shard-000002.tar"},
		"/rootB": {"/rootB/shard-000001.tar"},
	}
	rng1 := rand.New(rand.NewSource(7))
	rng2 := rand.New(rand.NewSource(7))

	order1 := buildRoundRobinOrder(roots, rng1)
	order2 := buildRoundRobinOrder(roots, rng2)

	if !reflect.DeepEqual(order1, order2) {
		t.Fatalf("round robin order not deterministic: %v vs %v", order1, order2)
	}

	if len(order1) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(order1))
	}

	if order1[0].root == order1[1].root {
		t.Fatalf("expected alternating roots, got %v", order1)
	}
}

func TestSamplerSinglePassDeterministic(t *testing.T) {
	temp := t.TempDir()
	rootA := filepath.Join(temp, "rootA")
	rootB := filepath.Join(temp, "rootB")
	opts := SamplerOptions{
		Roots: map[string][]string{
			rootA: {
				mustImageShard(t, filepath.Join(rootA, "shard-000000.tar"), "a0", 2),
				mustImageShard(t, filepath.Join(rootA, "shard-000002.tar"), "a1", 2),
			},
			rootB: {
				mustImageShard(t, filepath.Join(rootB, "shard-000001.tar"), "b0", 2),
			},
		},
		Seed:       123,
		NumWorkers: 2,
	}

	run1 := collectPass(t, opts)
	run2 := collectPass(t, opts)

	if len(run1) != 6 {
		t.Fatalf("expected one pass of 6 samples, got %d", len(run1))
	}
	if !reflect.DeepEqual(run1, run2) {
		t.Fatalf("sampler order not deterministic: %v vs %v", run1, run2)
	}
}

func TestStartSamplerRejectsEmpty(t *testing.T) {
	if _, _, err := StartSampler(context.Background(), SamplerOptions{}); err == nil {
		t.Fatal("expected error without roots")
	}
	if _, _, err := StartSampler(context.Background(), SamplerOptions{Roots: map[string][]string{"/r": nil}}); err == nil {
		t.Fatal("expected error without shards")
	}
}

func collectPass(t *testing.T, opts SamplerOptions) []string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, errCh, err := StartSampler(ctx, opts)
	if err != nil {
		t.Fatalf("StartSampler error: %v", err)
	}

	var out []string
	deadline := time.After(5 * time.Second)
	for stream != nil {
		select {
		case sample, ok := <-stream:
			if !ok {
				stream = nil
				continue
			}
			out = append(out, sample.Key)
		case <-deadline:
			t.Fatal("timed out waiting for samples")
		}
	}
	for err := range errCh {
		if err != nil {
			t.Fatalf("sampler reported error: %v", err)
		}
	}
	return out
}

func mustImageShard(t *testing.T, path, prefix string, count int) string {
	t.Helper()
	entries := make([]tarEntry, 0, count)
	for i := 0; i < count; i++ {
		entries = append(entries, tarEntry{fmt.Sprintf("%s_%d.png", prefix, i), pngBytes(t, 6, 4, uint8(40*i))})
	}
	writeTar(t, path, entries)
	return path
}
