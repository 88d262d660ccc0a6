package cache

// Builder can build caches.
type Builder struct {
	byteSize         uint64
	wayAssociativity int
	blockSize        uint64
	replaceStrategy  ReplacementStrategy
	writeStrategy    WriteStrategy

	victimFinder VictimFinder
	writePolicy  WritePolicy
}

// MakeBuilder creates a new builder with a 16 KB, 4-way, write-through LRU
// cache of 64-byte blocks.
func MakeBuilder() Builder {
	return Builder{
		byteSize:         16 * KB,
		wayAssociativity: 4,
		blockSize:        DefaultBlockSize,
		replaceStrategy:  LRU,
		writeStrategy:    WriteThrough,
	}
}

// WithByteSize sets the total capacity of the cache.
func (b Builder) WithByteSize(byteSize uint64) Builder {
	b.byteSize = byteSize
	return b
}

// WithWayAssociativity sets the way associativity of the builder.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithBlockSize sets the block size in bytes.
func (b Builder) WithBlockSize(blockSize uint64) Builder {
	b.blockSize = blockSize
	return b
}

// WithGeometry sets size, associativity and block size at once.
func (b Builder) WithGeometry(g Geometry) Builder {
	b.byteSize = g.ByteSize
	b.wayAssociativity = g.WayAssociativity
	b.blockSize = g.BlockSize

	return b
}

// WithReplacementStrategy sets the replacement strategy of the builder.
func (b Builder) WithReplacementStrategy(s ReplacementStrategy) Builder {
	b.replaceStrategy = s
	return b
}

// WithWriteStrategy sets the write strategy of the builder.
func (b Builder) WithWriteStrategy(s WriteStrategy) Builder {
	b.writeStrategy = s
	return b
}

// WithVictimFinder replaces the victim finder derived from the replacement
// strategy.
func (b Builder) WithVictimFinder(victimFinder VictimFinder) Builder {
	b.victimFinder = victimFinder
	return b
}

// WithWritePolicy replaces the write policy derived from the write strategy.
func (b Builder) WithWritePolicy(writePolicy WritePolicy) Builder {
	b.writePolicy = writePolicy
	return b
}

// Build builds a cache. It fails with a *ConfigurationError if the geometry
// does not divide into full sets or a strategy is unknown.
func (b Builder) Build(name string) (*Cache, error) {
	g := Geometry{
		ByteSize:         b.byteSize,
		WayAssociativity: b.wayAssociativity,
		BlockSize:        b.blockSize,
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	numSets := g.NumSets()

	victimFinder, err := b.createVictimFinder(numSets)
	if err != nil {
		return nil, err
	}

	writePolicy, err := b.createWritePolicy()
	if err != nil {
		return nil, err
	}

	c := &Cache{
		name:            name,
		geometry:        g,
		replaceStrategy: b.replaceStrategy,
		writeStrategy:   b.writeStrategy,
		directory:       NewDirectory(numSets, b.wayAssociativity),
		victimFinder:    victimFinder,
		writePolicy:     writePolicy,
	}

	return c, nil
}

func (b Builder) createVictimFinder(numSets int) (VictimFinder, error) {
	if b.victimFinder != nil {
		return b.victimFinder, nil
	}

	switch b.replaceStrategy {
	case LRU:
		return NewLRUVictimFinder(numSets, b.wayAssociativity), nil
	case FIFO:
		return NewFIFOVictimFinder(numSets, b.wayAssociativity), nil
	case LegacyFIFO:
		return NewLegacyFIFOVictimFinder(numSets, b.wayAssociativity), nil
	}

	return nil, &ConfigurationError{
		Field:  "replacement strategy",
		Value:  int(b.replaceStrategy),
		Reason: "is not supported",
	}
}

func (b Builder) createWritePolicy() (WritePolicy, error) {
	if b.writePolicy != nil {
		return b.writePolicy, nil
	}

	switch b.writeStrategy {
	case WriteThrough:
		return WriteThroughPolicy{}, nil
	case WriteBack:
		return WriteBackPolicy{}, nil
	}

	return nil, &ConfigurationError{
		Field:  "write strategy",
		Value:  int(b.writeStrategy),
		Reason: "is not supported",
	}
}
