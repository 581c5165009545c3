package alloc

import (
	"fmt"
	"sort"
	"sync"
)

// Allocator hands out file space append-only, recording every block so
// the layout can be validated. Freed blocks are remembered but not yet
// reused.
type Allocator struct {
	mu sync.Mutex

	// eofAddr is the next allocation point.
	eofAddr uint64

	// baseAddr is the lowest allocatable address, right after the
	// superblock.
	baseAddr uint64

	allocations []Allocation
	freeBlocks  []FreeBlock
	stats       Stats
}

// Allocation is one recorded block.
type Allocation struct {
	Addr uint64
	Size uint64
	Tag  string
}

// FreeBlock is a block returned via Free.
type FreeBlock struct {
	Addr uint64
	Size uint64
}

// Stats summarizes allocator activity.
type Stats struct {
	TotalAllocations uint64
	TotalBytesAlloc  uint64
	TotalBytesFree   uint64
	LargestAlloc     uint64
}

// New returns an Allocator whose first block starts at baseAddr.
func New(baseAddr uint64) *Allocator {
	return &Allocator{eofAddr: baseAddr, baseAddr: baseAddr}
}

// Alloc reserves size bytes at the end of the file and returns the
// block address.
func (a *Allocator) Alloc(size uint64) uint64 {
	return a.AllocTagged(size, "")
}

// AllocTagged is Alloc with a label attached to the recorded block.
func (a *Allocator) AllocTagged(size uint64, tag string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocLocked(size, tag)
}

func (a *Allocator) allocLocked(size uint64, tag string) uint64 {
	addr := a.eofAddr
	if size == 0 {
		return addr
	}
	a.eofAddr += size
	a.allocations = append(a.allocations, Allocation{Addr: addr, Size: size, Tag: tag})

	a.stats.TotalAllocations++
	a.stats.TotalBytesAlloc += size
	if size > a.stats.LargestAlloc {
		a.stats.LargestAlloc = size
	}
	return addr
}

// AllocAligned reserves size bytes at an address that is a multiple of
// alignment, padding the gap if needed.
func (a *Allocator) AllocAligned(size uint64, alignment uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if alignment > 1 {
		if rem := a.eofAddr % alignment; rem != 0 {
			a.eofAddr += alignment - rem
		}
	}
	return a.allocLocked(size, "")
}

// Free records a block as released. The space is tracked only; no
// allocation path reuses it yet.
func (a *Allocator) Free(addr, size uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.freeBlocks = append(a.freeBlocks, FreeBlock{Addr: addr, Size: size})
	a.stats.TotalBytesFree += size
}

// EOFAddr reports the current end-of-file address.
func (a *Allocator) EOFAddr() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eofAddr
}

// SetEOFAddr moves the end-of-file address, used when opening an
// existing file for appending.
func (a *Allocator) SetEOFAddr(addr uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eofAddr = addr
}

// BaseAddr reports the start of allocatable space.
func (a *Allocator) BaseAddr() uint64 {
	return a.baseAddr
}

// Stats returns a copy of the allocation statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Allocations returns a copy of every recorded block.
func (a *Allocator) Allocations() []Allocation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Allocation(nil), a.allocations...)
}

// FreeBlocks returns a copy of every freed block.
func (a *Allocator) FreeBlocks() []FreeBlock {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]FreeBlock(nil), a.freeBlocks...)
}

// Validate checks every recorded block for bounds violations and
// overlaps.
func (a *Allocator) Validate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	ordered := append([]Allocation(nil), a.allocations...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Addr < ordered[j].Addr })

	for i, cur := range ordered {
		if cur.Addr < a.baseAddr {
			return fmt.Errorf("allocation at 0x%x is before base address 0x%x", cur.Addr, a.baseAddr)
		}
		if cur.Addr+cur.Size > a.eofAddr {
			return fmt.Errorf("allocation at 0x%x size %d extends past EOF 0x%x", cur.Addr, cur.Size, a.eofAddr)
		}
		if i > 0 {
			prev := ordered[i-1]
			if prev.Addr+prev.Size > cur.Addr {
				return fmt.Errorf("overlapping allocations: [0x%x, size %d] and [0x%x, size %d]",
					prev.Addr, prev.Size, cur.Addr, cur.Size)
			}
		}
	}
	return nil
}

// AllocFunc adapts the allocator to the closure form used by the
// object writing paths.
func (a *Allocator) AllocFunc() func(size int64) uint64 {
	return func(size int64) uint64 {
		if size < 0 {
			panic("negative allocation size")
		}
		return a.Alloc(uint64(size))
	}
}

// Reset returns the allocator to its initial state.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.eofAddr = a.baseAddr
	a.allocations = nil
	a.freeBlocks = nil
	a.stats = Stats{}
}
