package abi

import (
	"math/big"
	"math/rand"
	"reflect"

	gethabi "github.com/crytic/medusa-geth/accounts/abi"
	"github.com/crytic/medusa-geth/common"

	"github.com/crytic/hydrafuzz/utils"
)

// ValueGenerator describes a capability which can generate values of primitive Go/Solidity types.
// This mirrors medusa's valuegeneration.ValueGenerator interface; the concrete, coverage/corpus
// driven generator used by a production scheduler is out of scope for this core (spec.md §1 — the
// "concrete RNG-driven scheduler implementation" is an external collaborator). RandomValueGenerator
// below is the minimal seed-time generator the initializer needs to allocate fresh BoxedABI values.
type ValueGenerator interface {
	GenerateAddress() common.Address
	GenerateInteger(signed bool, bitLength uint16) *big.Int
	GenerateBool() bool
	GenerateBytes() []byte
	GenerateFixedBytes(length int) []byte
	GenerateString() string
	GenerateArrayLength() int
}

// RandomValueGenerator is a minimal math/rand-backed ValueGenerator, sufficient to allocate
// zero/near-zero seed values for a freshly constructed BoxedABI. Mutation of these values across
// fuzzing iterations is the scheduler/mutator's responsibility (out of scope, per spec.md §1).
type RandomValueGenerator struct {
	Rand *rand.Rand
}

// NewRandomValueGenerator returns a RandomValueGenerator seeded deterministically from seed.
func NewRandomValueGenerator(seed int64) *RandomValueGenerator {
	return &RandomValueGenerator{Rand: rand.New(rand.NewSource(seed))}
}

func (g *RandomValueGenerator) GenerateAddress() common.Address {
	var addr common.Address
	g.Rand.Read(addr[:])
	return addr
}

func (g *RandomValueGenerator) GenerateInteger(signed bool, bitLength uint16) *big.Int {
	// Seed inputs start near zero (a small random magnitude) so initial corpus entries stay
	// well-formed; the (out-of-scope) mutator diversifies values afterward. The result is routed
	// through the same overflow-simulating bounds check a mutated value would get, so it can never
	// violate its declared bit length.
	v := big.NewInt(g.Rand.Int63n(256))
	if signed && g.Rand.Intn(2) == 1 {
		v.Neg(v)
	}
	return utils.ConstrainIntegerToBitLength(v, signed, int(bitLength))
}

func (g *RandomValueGenerator) GenerateBool() bool {
	return false
}

func (g *RandomValueGenerator) GenerateBytes() []byte {
	return []byte{}
}

func (g *RandomValueGenerator) GenerateFixedBytes(length int) []byte {
	return make([]byte, length)
}

func (g *RandomValueGenerator) GenerateString() string {
	return ""
}

func (g *RandomValueGenerator) GenerateArrayLength() int {
	return 0
}

// GenerateValue generates a Go value matching the provided ABI type, dispatching on its type tag.
// This mirrors medusa's fuzzing/valuegeneration.GenerateAbiValue, adapted to hydrafuzz's
// ValueGenerator and BoxedABI payload shape.
func GenerateValue(generator ValueGenerator, t *gethabi.Type) any {
	switch t.T {
	case gethabi.AddressTy:
		return generator.GenerateAddress()
	case gethabi.UintTy, gethabi.IntTy:
		signed := t.T == gethabi.IntTy
		v := generator.GenerateInteger(signed, t.Size)
		return coerceIntegerSize(v, t)
	case gethabi.BoolTy:
		return generator.GenerateBool()
	case gethabi.StringTy:
		return generator.GenerateString()
	case gethabi.BytesTy:
		return generator.GenerateBytes()
	case gethabi.FixedBytesTy:
		arr := reflect.Indirect(reflect.New(t.GetType()))
		bytes := reflect.ValueOf(generator.GenerateFixedBytes(t.Size))
		for i := 0; i < arr.Len() && i < bytes.Len(); i++ {
			arr.Index(i).Set(bytes.Index(i))
		}
		return arr.Interface()
	case gethabi.ArrayTy:
		arr := reflect.Indirect(reflect.New(t.GetType()))
		for i := 0; i < arr.Len(); i++ {
			arr.Index(i).Set(reflect.ValueOf(GenerateValue(generator, t.Elem)))
		}
		return arr.Interface()
	case gethabi.SliceTy:
		n := generator.GenerateArrayLength()
		slice := reflect.MakeSlice(t.GetType(), n, n)
		for i := 0; i < n; i++ {
			slice.Index(i).Set(reflect.ValueOf(GenerateValue(generator, t.Elem)))
		}
		return slice.Interface()
	case gethabi.TupleTy:
		st := reflect.Indirect(reflect.New(t.GetType()))
		for i := range t.TupleElems {
			st.Field(i).Set(reflect.ValueOf(GenerateValue(generator, t.TupleElems[i])))
		}
		return st.Interface()
	default:
		return nil
	}
}

// coerceIntegerSize narrows a *big.Int down to the concrete Go type go-ethereum's ABI packer
// expects for small integer widths (uint8/16/32/64, int8/16/32/64), matching gethabi's own
// reflection-based argument packing rules.
func coerceIntegerSize(v *big.Int, t *gethabi.Type) any {
	switch t.Size {
	case 8:
		if t.T == gethabi.IntTy {
			return int8(v.Int64())
		}
		return uint8(v.Uint64())
	case 16:
		if t.T == gethabi.IntTy {
			return int16(v.Int64())
		}
		return uint16(v.Uint64())
	case 32:
		if t.T == gethabi.IntTy {
			return int32(v.Int64())
		}
		return uint32(v.Uint64())
	case 64:
		if t.T == gethabi.IntTy {
			return v.Int64()
		}
		return v.Uint64()
	default:
		return v
	}
}
