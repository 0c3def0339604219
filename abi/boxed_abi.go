package abi

import (
	"reflect"

	gethabi "github.com/crytic/medusa-geth/accounts/abi"
)

// BoxedABI is a typed, mutable ABI value bound to a (selector, name, type-string): the concrete
// fuzz-mutation target for a seeded EVMInput. It owns freshly-generated argument values and knows
// how to re-encode itself into EVM calldata.
type BoxedABI struct {
	// Selector is the 4-byte function selector this value encodes calls for.
	Selector [4]byte

	// FunctionName is the human readable function name, retained for diagnostics and bug reports.
	FunctionName string

	// TypeString is the canonical argument-list type string this value was allocated from.
	TypeString string

	// ArgTypes describes each argument's ABI type, in order.
	ArgTypes []gethabi.Type

	// Values holds the current (possibly mutated) Go value for each argument, indices aligned
	// with ArgTypes.
	Values []any
}

// NewBoxedABI allocates a BoxedABI from a function's argument-list type string, generating an
// initial zero-ish value for every argument via the supplied ValueGenerator.
func NewBoxedABI(typeString string, gen ValueGenerator) (*BoxedABI, error) {
	argTypes, err := ParseArgTypes(typeString)
	if err != nil {
		return nil, err
	}
	values := make([]any, len(argTypes))
	for i := range argTypes {
		values[i] = GenerateValue(gen, &argTypes[i])
	}
	return &BoxedABI{TypeString: typeString, ArgTypes: argTypes, Values: values}, nil
}

// SetFuncWithSignature stamps the selector and display name onto an already-allocated BoxedABI,
// mirroring the two-step allocate-then-stamp flow used when seeding inputs from an ABIConfig.
func (b *BoxedABI) SetFuncWithSignature(selector [4]byte, name string, typeString string) {
	b.Selector = selector
	b.FunctionName = name
	b.TypeString = typeString
}

// Clone returns a deep-enough copy of the BoxedABI suitable as an independent mutation target:
// the Values slice and its contents are copied so that mutating the clone never aliases the
// original's arguments.
func (b *BoxedABI) Clone() *BoxedABI {
	clone := &BoxedABI{
		Selector:     b.Selector,
		FunctionName: b.FunctionName,
		TypeString:   b.TypeString,
		ArgTypes:     b.ArgTypes,
		Values:       make([]any, len(b.Values)),
	}
	for i, v := range b.Values {
		clone.Values[i] = deepCopyValue(v)
	}
	return clone
}

// deepCopyValue copies a generated ABI argument value produced through reflection, so clones do
// not share backing arrays/slices with their source.
func deepCopyValue(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(cp, rv)
		return cp.Interface()
	case reflect.Array:
		cp := reflect.New(rv.Type()).Elem()
		reflect.Copy(cp, rv)
		return cp.Interface()
	default:
		return v
	}
}

// Pack encodes the current argument values plus the selector into EVM calldata, ready to be sent
// as an EVMInput's transaction data.
func (b *BoxedABI) Pack() ([]byte, error) {
	args := gethabi.Arguments{}
	for _, t := range b.ArgTypes {
		args = append(args, gethabi.Argument{Type: t})
	}
	packed, err := args.Pack(b.Values...)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, b.Selector[:]...), packed...), nil
}
