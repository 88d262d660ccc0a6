package cache

// A Block of a cache is the information that is associated with a cache line.
type Block struct {
	Tag     uint64
	SetID   int
	WayID   int
	IsValid bool
	IsDirty bool
}

// IsEmpty tells whether the block holds nothing.
func (b *Block) IsEmpty() bool {
	return !b.IsValid && !b.IsDirty
}

// A Set is a list of blocks where a certain piece memory can be stored at.
type Set struct {
	ID     int
	Blocks []*Block
}

// A Directory stores the information about what is stored in the cache.
type Directory struct {
	NumSets int
	NumWays int

	Sets []Set
}

// NewDirectory returns a directory with all blocks invalid.
func NewDirectory(numSets, numWays int) *Directory {
	d := &Directory{
		NumSets: numSets,
		NumWays: numWays,
	}

	d.Reset()

	return d
}

// GetSet returns the set with the given ID.
func (d *Directory) GetSet(setID int) *Set {
	return &d.Sets[setID]
}

// Lookup returns the valid block of the set that holds the tag, or nil. If
// several ways hold the tag, the lowest way wins.
func (d *Directory) Lookup(setID int, tag uint64) *Block {
	for _, block := range d.Sets[setID].Blocks {
		if block.IsValid && block.Tag == tag {
			return block
		}
	}

	return nil
}

// FindEmpty returns the lowest-indexed empty block of the set, or nil if the
// set is full.
func (d *Directory) FindEmpty(setID int) *Block {
	for _, block := range d.Sets[setID].Blocks {
		if block.IsEmpty() {
			return block
		}
	}

	return nil
}

// ResidentTags returns the tags of the valid blocks of a set, in way order.
func (d *Directory) ResidentTags(setID int) []uint64 {
	tags := make([]uint64, 0, d.NumWays)

	for _, block := range d.Sets[setID].Blocks {
		if block.IsValid {
			tags = append(tags, block.Tag)
		}
	}

	return tags
}

// Reset will mark all the blocks in the directory invalid.
func (d *Directory) Reset() {
	d.Sets = make([]Set, d.NumSets)
	for i := 0; i < d.NumSets; i++ {
		d.Sets[i].ID = i
		d.Sets[i].Blocks = make([]*Block, d.NumWays)

		for j := 0; j < d.NumWays; j++ {
			d.Sets[i].Blocks[j] = &Block{
				SetID: i,
				WayID: j,
			}
		}
	}
}
