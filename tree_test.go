package blocktree

import (
	"bytes"
	"flag"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slow = flag.Bool("slow", false, "run slow tests")

// Helper to create a tree in a temporary directory
func setup(t *testing.T, blockSize int, opts ...TreeOption) (*Tree, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.tree")

	opts = append([]TreeOption{WithSyncMode(SyncOff)}, opts...)
	tree, err := Create(path, blockSize, opts...)
	require.NoError(t, err, "Failed to create tree")

	t.Cleanup(func() {
		_ = tree.Close()
	})
	return tree, path
}

// insertAll inserts every key with address key*100
func insertAll(t *testing.T, tree *Tree, keys ...Key) {
	t.Helper()
	for _, k := range keys {
		ok, err := tree.Insert(k, Address(k)*100)
		require.NoError(t, err)
		require.True(t, ok, "Failed to insert key %d", k)
	}
}

func keyRange(from, to Key) []Key {
	var keys []Key
	for k := from; k <= to; k++ {
		keys = append(keys, k)
	}
	return keys
}

func dump(t *testing.T, tree *Tree) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tree.Dump(&buf))
	return buf.String()
}

func TestInsertThenRemoveDescending(t *testing.T) {
	t.Parallel()

	tree, _ := setup(t, 72)
	for i := 1; i <= 25; i++ {
		ok, err := tree.Insert(Key(i), Address(i*1000))
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Equal(t, 6, tree.Order())

	for i := 25; i >= 16; i-- {
		addr, err := tree.Remove(Key(i))
		require.NoError(t, err)
		assert.Equal(t, Address(i*1000), addr, "remove %d", i)
	}

	for _, k := range []Key{20, 17, 16, 25} {
		addr, err := tree.Search(k)
		require.NoError(t, err)
		assert.Equal(t, Address(0), addr, "key %d was removed", k)
	}
	for i := 1; i <= 15; i++ {
		addr, err := tree.Search(Key(i))
		require.NoError(t, err)
		assert.Equal(t, Address(i*1000), addr)
	}

	assert.Equal(t,
		"0: [164: 4 7 10 13]\n"+
			"1: [20: 1 2 3 -> 92] [92: 4 5 6 -> 236] [236: 7 8 9 -> 308] [308: 10 11 12 -> 380] [380: 13 14 15 -> 0]\n",
		dump(t, tree))

	free, err := tree.FreeList()
	require.NoError(t, err)
	assert.Equal(t, []Address{668, 596, 452, 524, 740}, free)
	require.NoError(t, tree.Verify())
}

func TestSingleKeyTree(t *testing.T) {
	t.Parallel()

	tree, _ := setup(t, 72)
	insertAll(t, tree, 5)

	addr, err := tree.Remove(5)
	require.NoError(t, err)
	assert.Equal(t, Address(500), addr)

	addr, err = tree.Search(5)
	require.NoError(t, err)
	assert.Equal(t, Address(0), addr)
	assert.Equal(t, "empty\n", dump(t, tree))

	free, err := tree.FreeList()
	require.NoError(t, err)
	assert.Equal(t, []Address{20}, free)

	// The next insert starts a new root, reusing the freed record
	insertAll(t, tree, 9)
	assert.Equal(t, "0: [20: 9 -> 0]\n", dump(t, tree))
	free, err = tree.FreeList()
	require.NoError(t, err)
	assert.Empty(t, free)
}

func TestFullScanAfterInternalSplit(t *testing.T) {
	t.Parallel()

	tree, _ := setup(t, 60)
	for i := 1; i <= 21; i++ {
		ok, err := tree.Insert(Key(i), Address(i*1000))
		require.NoError(t, err)
		require.True(t, ok)
	}

	assert.Equal(t,
		"0: [500: 7 13]\n"+
			"1: [140: 3 5] [440: 9 11] [740: 15 17 19]\n"+
			"2: [20: 1 2 -> 80] [80: 3 4 -> 200] [200: 5 6 -> 260] [260: 7 8 -> 320] [320: 9 10 -> 380] "+
			"[380: 11 12 -> 560] [560: 13 14 -> 620] [620: 15 16 -> 680] [680: 17 18 -> 800] [800: 19 20 21 -> 0]\n",
		dump(t, tree))

	addrs, err := tree.RangeSearch(math.MinInt32, math.MaxInt32)
	require.NoError(t, err)
	require.Len(t, addrs, 21)
	for i, addr := range addrs {
		assert.Equal(t, Address((i+1)*1000), addr)
	}
	assert.Equal(t, int64(860), tree.Stats().FileSize)
}

func TestSearchEmptyTree(t *testing.T) {
	t.Parallel()

	tree, _ := setup(t, 36)

	addr, err := tree.Search(1)
	require.NoError(t, err)
	assert.Equal(t, Address(0), addr)

	addr, err = tree.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, Address(0), addr)

	addrs, err := tree.RangeSearch(math.MinInt32, math.MaxInt32)
	require.NoError(t, err)
	assert.Empty(t, addrs)
	require.NoError(t, tree.Verify())
}

func TestReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.tree")
	tree, err := Create(path, 60)
	require.NoError(t, err)
	insertAll(t, tree, keyRange(1, 40)...)
	for k := Key(1); k <= 40; k += 3 {
		_, err := tree.Remove(k)
		require.NoError(t, err)
	}
	want := dump(t, tree)
	wantFree, err := tree.FreeList()
	require.NoError(t, err)
	require.NoError(t, tree.Close())

	tree, err = Open(path, WithCacheSize(0))
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, 60, tree.BlockSize())
	assert.Equal(t, 5, tree.Order())
	assert.Equal(t, want, dump(t, tree))
	free, err := tree.FreeList()
	require.NoError(t, err)
	assert.Equal(t, wantFree, free)
	require.NoError(t, tree.Verify())

	addr, err := tree.Search(2)
	require.NoError(t, err)
	assert.Equal(t, Address(200), addr)
	addr, err = tree.Search(4)
	require.NoError(t, err)
	assert.Equal(t, Address(0), addr)
}

func TestCreateReplacesFile(t *testing.T) {
	t.Parallel()

	tree, path := setup(t, 60)
	insertAll(t, tree, keyRange(1, 10)...)
	require.NoError(t, tree.Close())

	tree, err := Create(path, 72)
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, 6, tree.Order())
	assert.Equal(t, "empty\n", dump(t, tree))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(20), info.Size())
}

func TestCreateInvalidBlockSize(t *testing.T) {
	t.Parallel()

	_, err := Create(filepath.Join(t.TempDir(), "test.tree"), 24)
	assert.ErrorIs(t, err, ErrInvalidBlockSize)
}

func TestOpenInvalidHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	short := filepath.Join(dir, "short.tree")
	require.NoError(t, os.WriteFile(short, []byte("nope"), 0600))
	_, err := Open(short)
	assert.ErrorIs(t, err, ErrInvalidHeader)

	zero := filepath.Join(dir, "zero.tree")
	require.NoError(t, os.WriteFile(zero, make([]byte, 20), 0600))
	_, err = Open(zero)
	assert.ErrorIs(t, err, ErrInvalidHeader)

	_, err = Open(filepath.Join(dir, "missing.tree"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClosedTree(t *testing.T) {
	t.Parallel()

	tree, _ := setup(t, 60)
	insertAll(t, tree, 1, 2, 3)
	require.NoError(t, tree.Close())

	_, err := tree.Insert(4, 400)
	assert.ErrorIs(t, err, ErrTreeClosed)
	_, err = tree.Remove(1)
	assert.ErrorIs(t, err, ErrTreeClosed)
	_, err = tree.Search(1)
	assert.ErrorIs(t, err, ErrTreeClosed)
	_, err = tree.RangeSearch(1, 3)
	assert.ErrorIs(t, err, ErrTreeClosed)
	assert.ErrorIs(t, tree.Verify(), ErrTreeClosed)
	assert.ErrorIs(t, tree.Close(), ErrTreeClosed)

	c := tree.Cursor()
	assert.False(t, c.Seek(1))
	assert.ErrorIs(t, c.Err(), ErrTreeClosed)
}

func TestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	tree, _ := setup(t, 36, WithLogger(logger))
	insertAll(t, tree, keyRange(1, 3)...)
	for k := Key(1); k <= 3; k++ {
		_, err := tree.Remove(k)
		require.NoError(t, err)
	}
	require.NoError(t, tree.Close())
	_, err := tree.Search(1)
	require.ErrorIs(t, err, ErrTreeClosed)

	out := buf.String()
	assert.Contains(t, out, `msg="tree created"`)
	assert.Contains(t, out, `msg="root split"`)
	assert.Contains(t, out, `msg="root collapsed"`)
	assert.Contains(t, out, `msg="tree closed"`)
	assert.Contains(t, out, `level=WARN msg="operation on closed tree" op=search`)
}

func TestStats(t *testing.T) {
	t.Parallel()

	tree, _ := setup(t, 60)
	insertAll(t, tree, keyRange(1, 21)...)

	before := tree.Stats()
	_, err := tree.Search(11)
	require.NoError(t, err)
	after := tree.Stats()

	// One record per level, nothing cached across calls
	assert.Equal(t, before.Reads+3, after.Reads)
	assert.Equal(t, before.Writes, after.Writes)
	assert.Equal(t, before.BytesRead+3*60, after.BytesRead)
}

func TestRandomized(t *testing.T) {
	t.Parallel()

	rounds := 2000
	if *slow {
		rounds = 50000
	}

	for _, blockSize := range []int{36, 48, 60, 72, 120, 4096} {
		rng := rand.New(rand.NewSource(int64(blockSize)))
		tree, _ := setup(t, blockSize)
		ref := make(map[Key]Address)

		for i := 0; i < rounds; i++ {
			k := Key(rng.Intn(401) - 200)
			if rng.Intn(100) < 55 {
				addr := Address(rng.Int63n(1<<40) + 1)
				ok, err := tree.Insert(k, addr)
				require.NoError(t, err)
				_, exists := ref[k]
				require.Equal(t, !exists, ok, "insert %d", k)
				if !exists {
					ref[k] = addr
				}

				got, err := tree.Search(k)
				require.NoError(t, err)
				require.Equal(t, ref[k], got, "search %d after insert", k)
			} else {
				addr, err := tree.Remove(k)
				require.NoError(t, err)
				require.Equal(t, ref[k], addr, "remove %d", k)
				delete(ref, k)
			}

			if i%100 == 0 {
				require.NoError(t, tree.Verify(), "block size %d round %d", blockSize, i)
			}
		}

		require.NoError(t, tree.Verify())
		keys := make([]Key, 0, len(ref))
		for k := range ref {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		want := make([]Address, 0, len(keys))
		for _, k := range keys {
			want = append(want, ref[k])
		}
		got, err := tree.RangeSearch(math.MinInt32, math.MaxInt32)
		require.NoError(t, err)
		assert.Equal(t, want, got, "block size %d", blockSize)

		// Drain: every record ends up on the free list
		for _, k := range keys {
			addr, err := tree.Remove(k)
			require.NoError(t, err)
			require.Equal(t, ref[k], addr)
		}
		assert.Equal(t, "empty\n", dump(t, tree))
		free, err := tree.FreeList()
		require.NoError(t, err)
		assert.Equal(t, int(tree.Stats().FileSize-20)/blockSize, len(free))
	}
}
