package cache

import "math"

// Size units.
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
)

// DefaultBlockSize is the number of bytes moved between the cache and the
// memory on a fill.
const DefaultBlockSize uint64 = 64

// Geometry describes the shape of a cache.
type Geometry struct {
	ByteSize         uint64
	WayAssociativity int
	BlockSize        uint64
}

// NumSets returns the number of sets. It is only meaningful for a geometry
// that passed Validate.
func (g Geometry) NumSets() int {
	return int(g.ByteSize / g.SetSize())
}

// SetSize returns the number of bytes a set can hold.
func (g Geometry) SetSize() uint64 {
	return g.BlockSize * uint64(g.WayAssociativity)
}

// NumBlocks returns the total number of blocks of the cache.
func (g Geometry) NumBlocks() int {
	return g.NumSets() * g.WayAssociativity
}

// Decode splits an address into the set the address maps to and the tag that
// identifies its block within that set.
func (g Geometry) Decode(addr uint64) (setID int, tag uint64) {
	blockID := addr / g.BlockSize
	numSets := uint64(g.NumSets())

	return int(blockID % numSets), blockID / numSets
}

// Validate checks that the geometry can be built into a cache.
func (g Geometry) Validate() error {
	if g.ByteSize == 0 {
		return &ConfigurationError{
			Field:  "byte size",
			Value:  g.ByteSize,
			Reason: "must be positive",
		}
	}

	if g.WayAssociativity <= 0 {
		return &ConfigurationError{
			Field:  "way associativity",
			Value:  g.WayAssociativity,
			Reason: "must be positive",
		}
	}

	if g.BlockSize == 0 {
		return &ConfigurationError{
			Field:  "block size",
			Value:  g.BlockSize,
			Reason: "must be positive",
		}
	}

	if g.BlockSize > math.MaxUint64/uint64(g.WayAssociativity) {
		return &ConfigurationError{
			Field:  "block size",
			Value:  g.BlockSize,
			Reason: "times associativity overflows 64 bits",
		}
	}

	if g.ByteSize%g.SetSize() != 0 {
		return &ConfigurationError{
			Field: "byte size",
			Value: g.ByteSize,
			Reason: "must be a multiple of block size times associativity " +
				"so that every set is full",
		}
	}

	return nil
}
