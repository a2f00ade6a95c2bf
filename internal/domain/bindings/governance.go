package bindings

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// GovernanceABIJSON describes every entry point reachable through timelock calls
const GovernanceABIJSON = `[
{"type":"function","name":"createMintRequest","inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"},{"name":"purpose","type":"string"}],"outputs":[{"name":"requestId","type":"uint256"}],"stateMutability":"nonpayable"},
{"type":"function","name":"createMintRequestFromOracle","inputs":[{"name":"recipient","type":"address"},{"name":"oracleRequestId","type":"string"},{"name":"purpose","type":"string"}],"outputs":[{"name":"requestId","type":"uint256"}],"stateMutability":"nonpayable"},
{"type":"function","name":"executeMintRequest","inputs":[{"name":"requestId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"cancelMintRequest","inputs":[{"name":"requestId","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"scheduleUpgrade","inputs":[{"name":"proxy","type":"address"},{"name":"newImplementation","type":"address"},{"name":"data","type":"bytes"},{"name":"isEmergency","type":"bool"},{"name":"reason","type":"string"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"cancelUpgrade","inputs":[{"name":"proxy","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"addExecutor","inputs":[{"name":"executor","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"removeExecutor","inputs":[{"name":"executor","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"setEmergencyFreeze","inputs":[{"name":"frozen","type":"bool"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"authorizeProxyAdmin","inputs":[{"name":"admin","type":"address"},{"name":"name","type":"string"},{"name":"owner","type":"address"},{"name":"description","type":"string"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"revokeProxyAdmin","inputs":[{"name":"admin","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"addCouncilMember","inputs":[{"name":"member","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
{"type":"function","name":"removeCouncilMember","inputs":[{"name":"member","type":"address"}],"outputs":[],"stateMutability":"nonpayable"}
]`

// Method names of the governance ABI
const (
	MethodCreateMintRequest           = "createMintRequest"
	MethodCreateMintRequestFromOracle = "createMintRequestFromOracle"
	MethodExecuteMintRequest          = "executeMintRequest"
	MethodCancelMintRequest           = "cancelMintRequest"
	MethodScheduleUpgrade             = "scheduleUpgrade"
	MethodCancelUpgrade               = "cancelUpgrade"
	MethodAddExecutor                 = "addExecutor"
	MethodRemoveExecutor              = "removeExecutor"
	MethodSetEmergencyFreeze          = "setEmergencyFreeze"
	MethodAuthorizeProxyAdmin         = "authorizeProxyAdmin"
	MethodRevokeProxyAdmin            = "revokeProxyAdmin"
	MethodAddCouncilMember            = "addCouncilMember"
	MethodRemoveCouncilMember         = "removeCouncilMember"
)

// Governance wraps the parsed governance ABI
type Governance struct {
	abi abi.ABI
}

var governance = mustParse(GovernanceABIJSON)

func mustParse(def string) *Governance {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid governance ABI: %v", err))
	}
	return &Governance{abi: parsed}
}

// GovernanceContract returns the shared governance ABI wrapper
func GovernanceContract() *Governance {
	return governance
}

// Selector returns the 4-byte selector of a method
func (g *Governance) Selector(method string) ([4]byte, error) {
	m, ok := g.abi.Methods[method]
	if !ok {
		return [4]byte{}, fmt.Errorf("method %s not found", method)
	}
	var sel [4]byte
	copy(sel[:], m.ID)
	return sel, nil
}

// Pack encodes a call to method with args
func (g *Governance) Pack(method string, args ...interface{}) ([]byte, error) {
	return g.abi.Pack(method, args...)
}

// DecodedCall is calldata resolved against the governance ABI
type DecodedCall struct {
	Method string
	Args   map[string]interface{}
}

// Decode resolves calldata into its method and named arguments
func (g *Governance) Decode(data []byte) (*DecodedCall, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("calldata too short: %d bytes", len(data))
	}
	method, err := g.abi.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	args := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(args, data[4:]); err != nil {
		return nil, fmt.Errorf("failed to unpack %s arguments: %w", method.Name, err)
	}
	return &DecodedCall{Method: method.Name, Args: args}, nil
}

// Address returns a decoded address argument
func (c *DecodedCall) Address(name string) (common.Address, error) {
	v, ok := c.Args[name].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: argument %s is not an address", c.Method, name)
	}
	return v, nil
}

// BigInt returns a decoded uint256 argument
func (c *DecodedCall) BigInt(name string) (*big.Int, error) {
	v, ok := c.Args[name].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: argument %s is not a uint256", c.Method, name)
	}
	return v, nil
}

// String returns a decoded string argument
func (c *DecodedCall) String(name string) (string, error) {
	v, ok := c.Args[name].(string)
	if !ok {
		return "", fmt.Errorf("%s: argument %s is not a string", c.Method, name)
	}
	return v, nil
}

// Bytes returns a decoded bytes argument
func (c *DecodedCall) Bytes(name string) ([]byte, error) {
	v, ok := c.Args[name].([]byte)
	if !ok {
		return nil, fmt.Errorf("%s: argument %s is not bytes", c.Method, name)
	}
	return v, nil
}

// Bool returns a decoded bool argument
func (c *DecodedCall) Bool(name string) (bool, error) {
	v, ok := c.Args[name].(bool)
	if !ok {
		return false, fmt.Errorf("%s: argument %s is not a bool", c.Method, name)
	}
	return v, nil
}

// IsMintRequestCall reports whether calldata targets the mint-request entry point
func IsMintRequestCall(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	for _, method := range []string{MethodCreateMintRequest, MethodCreateMintRequestFromOracle} {
		sel, err := governance.Selector(method)
		if err == nil && bytes.Equal(data[:4], sel[:]) {
			return true
		}
	}
	return false
}

var (
	addressTy, _      = abi.NewType("address", "", nil)
	addressSliceTy, _ = abi.NewType("address[]", "", nil)
	uint256Ty, _      = abi.NewType("uint256", "", nil)
	uint256SliceTy, _ = abi.NewType("uint256[]", "", nil)
	bytesTy, _        = abi.NewType("bytes", "", nil)
	bytesSliceTy, _   = abi.NewType("bytes[]", "", nil)
	bytes32Ty, _      = abi.NewType("bytes32", "", nil)
)

func nonNil(values []*big.Int) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		if v == nil {
			v = new(big.Int)
		}
		out[i] = v
	}
	return out
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// HashProposal computes keccak256(abi.encode(targets, values, calldatas, descriptionHash))
func HashProposal(targets []common.Address, values []*big.Int, calldatas [][]byte, descriptionHash common.Hash) (common.Hash, error) {
	args := abi.Arguments{{Type: addressSliceTy}, {Type: uint256SliceTy}, {Type: bytesSliceTy}, {Type: bytes32Ty}}
	encoded, err := args.Pack(targets, nonNil(values), calldatas, [32]byte(descriptionHash))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode proposal: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// HashDescription computes the keccak256 of a proposal description
func HashDescription(description string) common.Hash {
	return crypto.Keccak256Hash([]byte(description))
}

// HashOperation computes keccak256(abi.encode(target, value, data, predecessor, salt))
func HashOperation(target common.Address, value *big.Int, data []byte, predecessor, salt common.Hash) (common.Hash, error) {
	args := abi.Arguments{{Type: addressTy}, {Type: uint256Ty}, {Type: bytesTy}, {Type: bytes32Ty}, {Type: bytes32Ty}}
	encoded, err := args.Pack(target, orZero(value), data, [32]byte(predecessor), [32]byte(salt))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode operation: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// HashOperationBatch computes keccak256(abi.encode(targets, values, payloads, predecessor, salt))
func HashOperationBatch(targets []common.Address, values []*big.Int, payloads [][]byte, predecessor, salt common.Hash) (common.Hash, error) {
	args := abi.Arguments{{Type: addressSliceTy}, {Type: uint256SliceTy}, {Type: bytesSliceTy}, {Type: bytes32Ty}, {Type: bytes32Ty}}
	encoded, err := args.Pack(targets, nonNil(values), payloads, [32]byte(predecessor), [32]byte(salt))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode operation batch: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// HashUpgrade computes the id of a pending upgrade
func HashUpgrade(authority, proxy, implementation common.Address, data []byte, nonce uint64) (common.Hash, error) {
	args := abi.Arguments{{Type: addressTy}, {Type: addressTy}, {Type: addressTy}, {Type: bytesTy}, {Type: uint256Ty}}
	encoded, err := args.Pack(authority, proxy, implementation, data, new(big.Int).SetUint64(nonce))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode upgrade: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}
