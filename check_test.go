package blocktree

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corrupt closes tree, overwrites 4 bytes at off and reopens the file
func corrupt(t *testing.T, tree *Tree, path string, off int64, v uint32) *Tree {
	t.Helper()
	require.NoError(t, tree.Close())

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err = f.WriteAt(b[:], off)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := Open(path, WithSyncMode(SyncOff))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	return reopened
}

func TestVerifyDetectsKeyOrder(t *testing.T) {
	t.Parallel()

	tree, path := setup(t, 60)
	insertAll(t, tree, keyRange(1, 5)...)
	require.NoError(t, tree.Verify())

	// First key of the right leaf [3 4 5] at 80
	tree = corrupt(t, tree, path, 80+4, 9)
	assert.ErrorIs(t, tree.Verify(), ErrCorruption)
}

func TestVerifyDetectsStaleSeparator(t *testing.T) {
	t.Parallel()

	tree, path := setup(t, 60)
	insertAll(t, tree, keyRange(1, 5)...)

	// Root separator at 140 no longer matches the right leaf
	tree = corrupt(t, tree, path, 140+4, 2)
	assert.ErrorIs(t, tree.Verify(), ErrCorruption)
}

func TestVerifyDetectsUnderfullNode(t *testing.T) {
	t.Parallel()

	tree, path := setup(t, 60)
	insertAll(t, tree, keyRange(1, 5)...)

	// Leaf count -2 -> -1 on the left leaf at 20
	tree = corrupt(t, tree, path, 20, uint32(0xFFFFFFFF))
	assert.ErrorIs(t, tree.Verify(), ErrCorruption)
}

func TestVerifyDetectsBrokenChain(t *testing.T) {
	t.Parallel()

	tree, path := setup(t, 60)
	insertAll(t, tree, keyRange(1, 5)...)

	// Low half of the left leaf's next pointer (slot order-1 = 4)
	tree = corrupt(t, tree, path, 20+4+4*4+8*4+4, 0)
	assert.ErrorIs(t, tree.Verify(), ErrCorruption)
}

func TestDumpEmpty(t *testing.T) {
	t.Parallel()

	tree, _ := setup(t, 36)
	assert.Equal(t, "empty\n", dump(t, tree))
}
