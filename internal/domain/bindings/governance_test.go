package bindings

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	proxy = common.HexToAddress("0x00000000000000000000000000000000000e0001")
	impl  = common.HexToAddress("0x00000000000000000000000000000000000e0004")
)

func TestSelector(t *testing.T) {
	g := GovernanceContract()

	sel, err := g.Selector(MethodAddExecutor)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256([]byte("addExecutor(address)"))[:4], sel[:])

	_, err = g.Selector("transfer")
	assert.Error(t, err)
}

func TestDecodeRoundTrip(t *testing.T) {
	g := GovernanceContract()

	data, err := g.Pack(MethodScheduleUpgrade, proxy, impl, []byte{0x01, 0x02}, true, "hotfix")
	require.NoError(t, err)

	call, err := g.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, MethodScheduleUpgrade, call.Method)

	gotProxy, err := call.Address("proxy")
	require.NoError(t, err)
	assert.Equal(t, proxy, gotProxy)
	payload, err := call.Bytes("data")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, payload)
	emergency, err := call.Bool("isEmergency")
	require.NoError(t, err)
	assert.True(t, emergency)
	reason, err := call.String("reason")
	require.NoError(t, err)
	assert.Equal(t, "hotfix", reason)

	_, err = call.BigInt("proxy")
	assert.Error(t, err, "typed accessors reject mismatched arguments")
}

func TestDecodeErrors(t *testing.T) {
	g := GovernanceContract()

	_, err := g.Decode([]byte{0x01, 0x02})
	assert.ErrorContains(t, err, "calldata too short")

	_, err = g.Decode([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Error(t, err)

	sel, err := g.Selector(MethodAddExecutor)
	require.NoError(t, err)
	_, err = g.Decode(sel[:])
	assert.ErrorContains(t, err, "failed to unpack addExecutor")
}

func TestIsMintRequestCall(t *testing.T) {
	g := GovernanceContract()

	mint, err := g.Pack(MethodCreateMintRequest, alice, big.NewInt(1), "grants")
	require.NoError(t, err)
	oracle, err := g.Pack(MethodCreateMintRequestFromOracle, alice, "q1", "revenue")
	require.NoError(t, err)
	other, err := g.Pack(MethodAddExecutor, alice)
	require.NoError(t, err)

	assert.True(t, IsMintRequestCall(mint))
	assert.True(t, IsMintRequestCall(oracle))
	assert.False(t, IsMintRequestCall(other))
	assert.False(t, IsMintRequestCall(nil))
}

func TestPackStrings(t *testing.T) {
	g := GovernanceContract()

	tests := []struct {
		name      string
		method    string
		args      []string
		uints     UintParser
		want      []interface{}
		expectErr string
	}{
		{
			name:   "address argument",
			method: MethodAddExecutor,
			args:   []string{" " + alice.Hex() + " "},
			want:   []interface{}{alice},
		},
		{
			name:   "uint and string",
			method: MethodCreateMintRequest,
			args:   []string{alice.Hex(), "0x10", "grants"},
			want:   []interface{}{alice, big.NewInt(16), "grants"},
		},
		{
			name:   "uint through parser",
			method: MethodCreateMintRequest,
			args:   []string{alice.Hex(), "5", "grants"},
			uints: func(name, s string) (*big.Int, error) {
				return big.NewInt(5000), nil
			},
			want: []interface{}{alice, big.NewInt(5000), "grants"},
		},
		{
			name:   "empty bytes and bool",
			method: MethodScheduleUpgrade,
			args:   []string{proxy.Hex(), impl.Hex(), "", "false", "routine"},
			want:   []interface{}{proxy, impl, []byte{}, false, "routine"},
		},
		{name: "unknown method", method: "transfer", args: nil, expectErr: "method transfer not found"},
		{name: "wrong arity", method: MethodAddExecutor, args: []string{}, expectErr: "expects 1 arguments, got 0"},
		{name: "bad address", method: MethodAddExecutor, args: []string{"0x1234"}, expectErr: "invalid address"},
		{name: "negative uint", method: MethodExecuteMintRequest, args: []string{"-1"}, expectErr: "invalid integer"},
		{name: "bad bool", method: MethodSetEmergencyFreeze, args: []string{"maybe"}, expectErr: "argument frozen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := g.PackStrings(tt.method, tt.args, tt.uints)
			if tt.expectErr != "" {
				assert.ErrorContains(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			want, err := g.Pack(tt.method, tt.want...)
			require.NoError(t, err)
			assert.Equal(t, want, data)
		})
	}
}

func TestSignature(t *testing.T) {
	g := GovernanceContract()

	sig, err := g.Signature(MethodAuthorizeProxyAdmin)
	require.NoError(t, err)
	assert.Equal(t, "authorizeProxyAdmin(address admin, string name, address owner, string description)", sig)
	assert.Len(t, g.Methods(), 13)
	assert.IsIncreasing(t, g.Methods())
}

func TestHashes(t *testing.T) {
	assert.Equal(t,
		common.HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		HashDescription(""))

	targets := []common.Address{alice}
	calldatas := [][]byte{{0x01}}
	a, err := HashProposal(targets, []*big.Int{nil}, calldatas, HashDescription("x"))
	require.NoError(t, err)
	b, err := HashProposal(targets, []*big.Int{big.NewInt(0)}, calldatas, HashDescription("x"))
	require.NoError(t, err)
	c, err := HashProposal(targets, []*big.Int{big.NewInt(0)}, calldatas, HashDescription("y"))
	require.NoError(t, err)
	assert.Equal(t, a, b, "nil values hash as zero")
	assert.NotEqual(t, b, c)

	op1, err := HashOperation(alice, nil, []byte{0x01}, common.Hash{}, common.Hash{})
	require.NoError(t, err)
	op2, err := HashOperation(alice, nil, []byte{0x01}, common.Hash{}, common.HexToHash("0x01"))
	require.NoError(t, err)
	assert.NotEqual(t, op1, op2)

	u1, err := HashUpgrade(alice, proxy, impl, nil, 0)
	require.NoError(t, err)
	u2, err := HashUpgrade(alice, proxy, impl, nil, 1)
	require.NoError(t, err)
	assert.NotEqual(t, u1, u2)
}
