package message

import (
	"fmt"

	binpkg "github.com/robert-malhotra/h5data/internal/binary"
)

// SymbolTable is the symbol table message (type 0x0011). Old-style
// groups carry one to locate the B-tree and local heap that together
// list the group's members.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, r *binpkg.Reader) (*SymbolTable, error) {
	offsetSize := r.OffsetSize()
	if len(data) < 2*offsetSize {
		return nil, fmt.Errorf("symbol table message too short")
	}

	st := &SymbolTable{
		BTreeAddress:     decodeUint(data[:offsetSize], offsetSize, r.ByteOrder()),
		LocalHeapAddress: decodeUint(data[offsetSize:2*offsetSize], offsetSize, r.ByteOrder()),
	}
	return st, nil
}
