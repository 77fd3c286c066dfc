package merkle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomadprotocol/agents/pkg/types"
)

// TestEmptyRootConstant pins the protocol constant from spec P4.
func TestEmptyRootConstant(t *testing.T) {
	want := "0x27ae5ba08d7291c96c8cbddcc148bf48a6d68c7974b94356f53754ef6171d757"
	got := NewLightTree().Root().String()
	require.Equal(t, want, got)
	assert.Equal(t, EmptyRoot(), NewLightTree().Root())
}

func leafSeq(n int) []types.Hash {
	leaves := make([]types.Hash, n)
	for i := range leaves {
		leaves[i] = types.HashBytes([]byte{byte(i), byte(i >> 8)})
	}
	return leaves
}

// TestLightFullRootAgreement is property P1: light and full trees must
// compute bit-identical roots for the same leaf sequence.
func TestLightFullRootAgreement(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 7, 8, 9, 63, 64, 65} {
		light := NewLightTree()
		full := NewFullTree()
		for _, leaf := range leafSeq(n) {
			lr, err := light.Insert(leaf)
			require.NoError(t, err)
			fr, err := full.Insert(leaf)
			require.NoError(t, err)
			require.Equal(t, lr, fr, "root mismatch at n=%d", n)
		}
		require.Equal(t, light.Root(), full.Root())
	}
}

// TestProveVerifyRoundTrip is property P2.
func TestProveVerifyRoundTrip(t *testing.T) {
	full := NewFullTree()
	leaves := leafSeq(50)
	for _, leaf := range leaves {
		_, err := full.Insert(leaf)
		require.NoError(t, err)
	}
	root := full.Root()
	for i := range leaves {
		proof, err := full.Prove(uint32(i))
		require.NoError(t, err)
		assert.True(t, Verify(proof, root), "proof for index %d did not verify", i)
	}
}

// TestProveVerifyTamperedLeafFails is property P3.
func TestProveVerifyTamperedLeafFails(t *testing.T) {
	full := NewFullTree()
	leaves := leafSeq(10)
	for _, leaf := range leaves {
		_, err := full.Insert(leaf)
		require.NoError(t, err)
	}
	root := full.Root()
	proof, err := full.Prove(3)
	require.NoError(t, err)
	proof.Leaf[0] ^= 0xFF
	assert.False(t, Verify(proof, root))
}

// TestSingleLeafHelloWorld is spec section 8 concrete scenario 2.
func TestSingleLeafHelloWorld(t *testing.T) {
	full := NewFullTree()
	leaf := types.HashBytes([]byte("hello"))
	_, err := full.Insert(leaf)
	require.NoError(t, err)

	proof, err := full.Prove(0)
	require.NoError(t, err)
	require.True(t, Verify(proof, full.Root()))

	proof.Leaf[0] ^= 0x01
	require.False(t, Verify(proof, full.Root()))
}

// TestInsertFailsWhenFull exercises the TreeFull boundary without actually
// performing 2^32 inserts, by starting a LightTree's count at 2^Depth-1.
func TestInsertFailsWhenFull(t *testing.T) {
	light := &LightTree{count: (uint64(1) << types.Depth) - 1}
	_, err := light.Insert(types.HashBytes([]byte("last")))
	require.NoError(t, err)
	_, err = light.Insert(types.HashBytes([]byte("overflow")))
	require.ErrorIs(t, err, ErrTreeFull)
}

func TestProveOutOfRangeFails(t *testing.T) {
	full := NewFullTree()
	_, err := full.Insert(types.HashBytes([]byte("only")))
	require.NoError(t, err)
	_, err = full.Prove(1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}
