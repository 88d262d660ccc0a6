package cache

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/hooking"
)

type access struct {
	op   Op
	addr uint64
}

func r(addr uint64) access { return access{OpRead, addr} }
func w(addr uint64) access { return access{OpWrite, addr} }

func mustBuild(b Builder) *Cache {
	c, err := b.Build("Cache")
	Expect(err).NotTo(HaveOccurred())

	return c
}

func run(c *Cache, accesses ...access) []AccessResult {
	results := make([]AccessResult, 0, len(accesses))
	for _, a := range accesses {
		results = append(results, c.Access(a.op, a.addr))
	}

	return results
}

// evictedTags returns the tags evicted, in order.
func evictedTags(results []AccessResult) []uint64 {
	var tags []uint64

	for _, res := range results {
		if res.Evicted {
			tags = append(tags, res.EvictedTag)
		}
	}

	return tags
}

var _ = Describe("Cache", func() {
	Context("direct mapped 1 KB cache", func() {
		var builder Builder

		BeforeEach(func() {
			builder = MakeBuilder().
				WithByteSize(1024).
				WithWayAssociativity(1)
		})

		It("should have 16 sets", func() {
			c := mustBuild(builder)

			Expect(c.Geometry().NumSets()).To(Equal(16))
			Expect(c.Geometry().BlockSize).To(Equal(uint64(64)))
		})

		It("should count a write-back eviction", func() {
			c := mustBuild(builder.WithWriteStrategy(WriteBack))

			results := run(c, w(0x0), r(0x0), w(0x400))

			Expect(results[0].Hit).To(BeFalse())
			Expect(results[1].Hit).To(BeTrue())
			Expect(results[2].Hit).To(BeFalse())
			Expect(results[2].WroteBack).To(BeTrue())
			Expect(c.Stats()).To(Equal(Statistics{
				Accesses:     3,
				Misses:       2,
				MemoryReads:  2,
				MemoryWrites: 1,
				Evictions:    1,
				WriteBacks:   1,
			}))
		})

		It("should write the remaining dirty block on flush", func() {
			c := mustBuild(builder.WithWriteStrategy(WriteBack))
			run(c, w(0x0), r(0x0), w(0x400))

			Expect(c.Flush()).To(Equal(1))
			Expect(c.Flush()).To(Equal(0))
			Expect(c.Stats().MemoryWrites).To(Equal(uint64(2)))
			Expect(c.ResidentTags(0)).To(Equal([]uint64{1}))
		})

		It("should write every write through", func() {
			c := mustBuild(builder.WithWriteStrategy(WriteThrough))

			run(c, w(0x0), r(0x0), w(0x400))

			Expect(c.Stats().MemoryWrites).To(Equal(uint64(2)))
			Expect(c.Stats().WriteBacks).To(BeZero())
			Expect(c.Flush()).To(BeZero())
		})

		It("should treat address 0 as a cold miss", func() {
			c := mustBuild(builder)

			res := c.Access(OpRead, 0)

			Expect(res.Hit).To(BeFalse())
			Expect(res.Evicted).To(BeFalse())
		})
	})

	Context("two-way cache with a single set", func() {
		const (
			a  = 0x000
			b  = 0x040
			cc = 0x080
			d  = 0x0c0
		)

		var builder Builder

		BeforeEach(func() {
			builder = MakeBuilder().
				WithByteSize(128).
				WithWayAssociativity(2)
		})

		It("should evict B under LRU after A is touched again", func() {
			c := mustBuild(builder.WithReplacementStrategy(LRU))

			results := run(c, r(a), r(b), r(a), r(cc))

			Expect(evictedTags(results)).To(Equal([]uint64{1}))
		})

		It("should evict A under FIFO regardless of the hit on A", func() {
			c := mustBuild(builder.WithReplacementStrategy(FIFO))

			results := run(c, r(a), r(b), r(a), r(cc))

			Expect(evictedTags(results)).To(Equal([]uint64{0}))
		})

		It("should diverge between LRU and FIFO", func() {
			trace := []access{r(a), r(b), r(a), r(cc), r(b), r(d)}

			lru := mustBuild(builder.WithReplacementStrategy(LRU))
			fifo := mustBuild(builder.WithReplacementStrategy(FIFO))

			lruResults := run(lru, trace...)
			fifoResults := run(fifo, trace...)

			Expect(evictedTags(lruResults)).To(Equal([]uint64{1, 0, 2}))
			Expect(evictedTags(fifoResults)).To(Equal([]uint64{0, 1}))
			Expect(lruResults[5].EvictedTag).To(Equal(uint64(2)))
			Expect(fifoResults[5].EvictedTag).To(Equal(uint64(1)))
			Expect(lru.Stats().Misses).To(Equal(uint64(5)))
			Expect(fifo.Stats().Misses).To(Equal(uint64(4)))
		})

		It("should always evict the first way under legacy FIFO", func() {
			c := mustBuild(builder.WithReplacementStrategy(LegacyFIFO))

			results := run(c, r(a), r(b), r(a), r(cc), r(b), r(d))

			for _, res := range results {
				if res.Evicted {
					Expect(res.WayID).To(Equal(0))
				}
			}
			Expect(evictedTags(results)).To(Equal([]uint64{0, 2}))
		})

		It("should not write on a write-back hit until eviction", func() {
			c := mustBuild(builder.WithWriteStrategy(WriteBack))

			run(c, r(a), w(a), w(a))
			Expect(c.Stats().MemoryWrites).To(BeZero())

			run(c, r(b), r(cc))
			Expect(c.Stats().MemoryWrites).To(Equal(uint64(1)))
		})

		It("should not write back a block that was only read", func() {
			c := mustBuild(builder.WithWriteStrategy(WriteBack))

			run(c, r(a), r(b), r(cc), r(d))

			Expect(c.Stats().MemoryWrites).To(BeZero())
			Expect(c.Stats().Evictions).To(Equal(uint64(2)))
		})

		It("should clean the dirty bit of a refilled block", func() {
			c := mustBuild(builder.WithWriteStrategy(WriteBack))

			run(c, w(a), r(b), r(cc), r(a), r(b))

			Expect(c.Stats().WriteBacks).To(Equal(uint64(1)))
		})

		It("should reset", func() {
			c := mustBuild(builder)
			run(c, r(a), r(b))

			c.Reset()

			Expect(c.Stats()).To(BeZero())
			Expect(c.ResidentTags(0)).To(BeEmpty())
			Expect(c.Access(OpRead, a).Hit).To(BeFalse())
		})
	})

	Context("with random traces", func() {
		DescribeTable("should keep its invariants",
			func(replace ReplacementStrategy, write WriteStrategy) {
				c := mustBuild(MakeBuilder().
					WithByteSize(2 * KB).
					WithWayAssociativity(4).
					WithReplacementStrategy(replace).
					WithWriteStrategy(write))
				rng := rand.New(rand.NewSource(1))
				numWrites := uint64(0)

				for i := 1; i <= 5000; i++ {
					addr := uint64(rng.Intn(64 * 1024))
					op := OpRead
					if rng.Intn(3) == 0 {
						op = OpWrite
						numWrites++
					}

					c.Access(op, addr)

					stats := c.Stats()
					Expect(stats.Accesses).To(Equal(uint64(i)))
					Expect(stats.Misses).To(BeNumerically("<=", stats.Accesses))
					Expect(stats.MemoryReads).To(Equal(stats.Misses))

					setID, _ := c.Geometry().Decode(addr)
					tags := c.ResidentTags(setID)
					Expect(len(tags)).To(BeNumerically("<=", 4))
					Expect(tags).To(HaveLen(len(uniq(tags))))
				}

				if write == WriteThrough {
					Expect(c.Stats().MemoryWrites).To(Equal(numWrites))
				} else {
					Expect(c.Stats().MemoryWrites).To(
						BeNumerically("<=", c.Stats().Evictions))
				}
			},
			Entry("LRU write-through", LRU, WriteThrough),
			Entry("LRU write-back", LRU, WriteBack),
			Entry("FIFO write-through", FIFO, WriteThrough),
			Entry("FIFO write-back", FIFO, WriteBack),
			Entry("legacy FIFO write-back", LegacyFIFO, WriteBack),
		)

		It("should hit when repeating an access", func() {
			c := mustBuild(MakeBuilder())
			rng := rand.New(rand.NewSource(2))

			for i := 0; i < 1000; i++ {
				addr := rng.Uint64()
				op := Op(rng.Intn(2))

				c.Access(op, addr)
				misses := c.Stats().Misses

				Expect(c.Access(op, addr).Hit).To(BeTrue())
				Expect(c.Stats().Misses).To(Equal(misses))
			}
		})

		It("should be deterministic", func() {
			trace := make([]access, 0, 2000)
			rng := rand.New(rand.NewSource(3))
			for i := 0; i < 2000; i++ {
				trace = append(trace, access{Op(rng.Intn(2)), uint64(rng.Intn(32 * 1024))})
			}

			b := MakeBuilder().WithByteSize(1 * KB).WithReplacementStrategy(FIFO).
				WithWriteStrategy(WriteBack)
			first := mustBuild(b)
			second := mustBuild(b)

			Expect(run(first, trace...)).To(Equal(run(second, trace...)))
			Expect(first.Stats()).To(Equal(second.Stats()))
		})
	})

	Context("with mocked policies", func() {
		var (
			mockCtrl     *gomock.Controller
			victimFinder *MockVictimFinder
			writePolicy  *MockWritePolicy
			c            *Cache
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			victimFinder = NewMockVictimFinder(mockCtrl)
			writePolicy = NewMockWritePolicy(mockCtrl)
			c = mustBuild(MakeBuilder().
				WithByteSize(128).
				WithWayAssociativity(2).
				WithVictimFinder(victimFinder).
				WithWritePolicy(writePolicy))
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should fill the lowest empty way on a read miss", func() {
			victimFinder.EXPECT().Fill(gomock.Any()).Do(func(block *Block) {
				Expect(block.WayID).To(Equal(0))
				Expect(block.IsValid).To(BeTrue())
			})

			res := c.Access(OpRead, 0x40)

			Expect(res.Hit).To(BeFalse())
			Expect(res.Tag).To(Equal(uint64(1)))
		})

		It("should visit on a hit and apply the write policy", func() {
			victimFinder.EXPECT().Fill(gomock.Any())
			writePolicy.EXPECT().WriteFill(gomock.Any()).Return(false)
			c.Access(OpWrite, 0x40)

			victimFinder.EXPECT().Visit(gomock.Any())
			writePolicy.EXPECT().WriteHit(gomock.Any()).Return(true)
			res := c.Access(OpWrite, 0x40)

			Expect(res.Hit).To(BeTrue())
			Expect(c.Stats().MemoryWrites).To(Equal(uint64(1)))
		})

		It("should ask the write policy before replacing the victim", func() {
			victimFinder.EXPECT().Fill(gomock.Any()).Times(2)
			run(c, r(0x0), r(0x40))

			victim := c.directory.Sets[0].Blocks[1]
			gomock.InOrder(
				victimFinder.EXPECT().FindVictim(c.directory.GetSet(0)).Return(victim),
				writePolicy.EXPECT().Evict(victim).DoAndReturn(func(block *Block) bool {
					Expect(block.Tag).To(Equal(uint64(1)))
					return true
				}),
				victimFinder.EXPECT().Fill(victim),
			)

			res := c.Access(OpRead, 0x80)

			Expect(res.WayID).To(Equal(1))
			Expect(res.EvictedTag).To(Equal(uint64(1)))
			Expect(c.ResidentTags(0)).To(Equal([]uint64{0, 2}))
			Expect(c.Stats().WriteBacks).To(Equal(uint64(1)))
		})
	})

	Context("with hooks", func() {
		It("should report accesses and evictions", func() {
			c := mustBuild(MakeBuilder().
				WithByteSize(64).
				WithWayAssociativity(1).
				WithWriteStrategy(WriteBack))

			var accesses []AccessEvent
			var evictions []EvictEvent
			hook := hooking.HookFunc(func(ctx hooking.HookCtx) {
				Expect(ctx.Domain).To(BeIdenticalTo(c))

				switch item := ctx.Item.(type) {
				case AccessEvent:
					accesses = append(accesses, item)
				case EvictEvent:
					evictions = append(evictions, item)
				}
			})
			c.AcceptHook(&hook)

			run(c, w(0x0), r(0x40))

			Expect(accesses).To(HaveLen(2))
			Expect(accesses[0].Seq).To(Equal(uint64(1)))
			Expect(accesses[1].Op).To(Equal(OpRead))
			Expect(accesses[1].Address).To(Equal(uint64(0x40)))
			Expect(evictions).To(Equal([]EvictEvent{
				{SetID: 0, WayID: 0, Tag: 0, WroteBack: true},
			}))
		})
	})
})

func uniq(tags []uint64) map[uint64]struct{} {
	m := make(map[uint64]struct{}, len(tags))
	for _, t := range tags {
		m[t] = struct{}{}
	}

	return m
}
