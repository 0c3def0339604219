package contracts

import (
	"fmt"

	"github.com/crytic/hydrafuzz/abi"
	"github.com/crytic/hydrafuzz/evmtypes"
)

// Artifacts is the record the corpus initializer produces: every deployed address mapped to its
// bytecode, ABI, boxed ABI objects, display name, source map, and build artifact. Downstream
// components (the oracle framework's source-map resolution, reporting) consult it by address.
type Artifacts struct {
	AddressToBytecode   map[evmtypes.Address]*evmtypes.Bytecode
	AddressToABI        map[evmtypes.Address][]abi.ABIConfig
	AddressToABIObjects map[evmtypes.Address][]*abi.BoxedABI
	AddressToName       map[evmtypes.Address]string
	AddressToSourceMap  map[evmtypes.Address]map[int]SourceMapLocation
	BuildArtifacts      map[evmtypes.Address]*BuildArtifact
}

// NewArtifacts returns an empty, initialized Artifacts record.
func NewArtifacts() *Artifacts {
	return &Artifacts{
		AddressToBytecode:   make(map[evmtypes.Address]*evmtypes.Bytecode),
		AddressToABI:        make(map[evmtypes.Address][]abi.ABIConfig),
		AddressToABIObjects: make(map[evmtypes.Address][]*abi.BoxedABI),
		AddressToName:       make(map[evmtypes.Address]string),
		AddressToSourceMap:  make(map[evmtypes.Address]map[int]SourceMapLocation),
		BuildArtifacts:      make(map[evmtypes.Address]*BuildArtifact),
	}
}

// DisplayName computes a contract's display name: its bare name if that already equals its
// address string (anonymous on-chain targets), otherwise "Name(0xaddress)".
func DisplayName(name string, addr evmtypes.Address) string {
	trimmed := trimTrailingStars(name)
	if trimmed == addr.String() {
		return trimmed
	}
	return fmt.Sprintf("%s(%s)", trimmed, addr.String())
}

func trimTrailingStars(name string) string {
	for len(name) > 0 && name[len(name)-1] == '*' {
		name = name[:len(name)-1]
	}
	return name
}
