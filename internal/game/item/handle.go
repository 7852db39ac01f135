// Package item defines item stacks, their catalog definitions, and the
// generational pool that hands out stable handles to pooled stacks.
package item

import "fmt"

// Handle is a generation-checked reference to a pool entry: the low 24 bits
// hold the index and the high 8 bits the generation. Handles are plain values
// and may be cached, copied and serialized freely; a stale handle simply
// fails validation.
type Handle uint32

const (
	indexBits      = 24
	generationBits = 8
	indexMask      = 1<<indexBits - 1
	generationMask = 1<<generationBits - 1

	// MaxIndex is the largest index a pool hands out. Index 0xFFFFFF is
	// reserved so that no live handle can equal NoHandle.
	MaxIndex = indexMask - 1

	// NoHandle is the all-ones sentinel meaning "no item".
	NoHandle Handle = 1<<32 - 1
)

// NewHandle packs index and generation.
//
// Precondition: index <= MaxIndex.
func NewHandle(index uint32, generation uint8) Handle {
	return Handle(uint32(generation)<<indexBits | index&indexMask)
}

// Index returns the pool index portion.
func (h Handle) Index() uint32 {
	return uint32(h) & indexMask
}

// Generation returns the generation portion.
func (h Handle) Generation() uint8 {
	return uint8(uint32(h) >> indexBits & generationMask)
}

// IsNone reports whether h is the sentinel.
func (h Handle) IsNone() bool {
	return h == NoHandle
}

// String renders the handle for logs.
func (h Handle) String() string {
	if h.IsNone() {
		return "Item[none]"
	}
	return fmt.Sprintf("Item[idx:%d,gen:%d]", h.Index(), h.Generation())
}
