package reusedistance

import (
	"github.com/azaharalam/PPT-TPU-MEM/hooking"
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type recordCollector struct {
	accesses  []AccessRecord
	summaries []SummaryRecord
}

func (c *recordCollector) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosAccess:
		c.accesses = append(c.accesses, ctx.Item.(AccessRecord))
	case HookPosSummary:
		c.summaries = append(c.summaries, ctx.Item.(SummaryRecord))
	}
}

func temporalOf(records []AccessRecord) []uint64 {
	out := make([]uint64, len(records))
	for i, r := range records {
		out[i] = r.Temporal
	}

	return out
}

func cyclicAccesses(rows, lines, rounds int) []Access {
	var accesses []Access

	for r := 0; r < rounds; r++ {
		for l := 0; l < lines; l++ {
			accesses = append(accesses, Access{
				Row:  uint64(l % rows),
				Line: uint64(l),
			})
		}
	}

	return accesses
}

var _ = Describe("Engine", func() {
	var (
		mockCtrl  *gomock.Controller
		engine    *Engine
		collector *recordCollector
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = MakeBuilder().Build()
		collector = &recordCollector{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should measure one distinct address between reuses", func() {
		engine.AcceptHook(collector)

		engine.Compute([]Access{{0, 0}, {0, 1}, {0, 0}})

		Expect(temporalOf(collector.accesses)).
			To(Equal([]uint64{DMax, DMax, 1}))
		Expect(collector.accesses[0].HitProbability).To(Equal(0.0))
		Expect(collector.accesses[2].Spatial).To(Equal(uint64(1)))
	})

	It("should only miss cold lines in a huge buffer", func() {
		engine = MakeBuilder().
			WithUBKB(1 << 20).
			WithBeta(10).
			Build()

		s := engine.Compute(cyclicAccesses(3, 4, 250))

		Expect(s.TotalAccesses).To(Equal(1000))
		Expect(s.MissCount).To(BeNumerically("~", 4, 1e-9))
		Expect(s.HitRate).To(BeNumerically("~", 0.996, 1e-9))
		Expect(s.BWCycles).To(Equal(uint64(1)))
		Expect(s.Histogram.Cold()).To(Equal(uint64(4)))
		Expect(s.Histogram[3]).To(Equal(uint64(996)))
	})

	It("should approach a perfect hit rate as reuse dominates", func() {
		engine = MakeBuilder().WithUBKB(1 << 20).WithBeta(10).Build()

		short := engine.Compute(cyclicAccesses(3, 4, 10))
		long := engine.Compute(cyclicAccesses(3, 4, 10000))

		Expect(long.HitRate).To(BeNumerically(">", short.HitRate))
		Expect(long.HitRate).To(BeNumerically(">", 0.9998))
	})

	It("should miss everything without a buffer", func() {
		engine = MakeBuilder().
			WithUBKB(0).
			WithBeta(1).
			Build()

		s := engine.Compute(cyclicAccesses(1, 200, 2))

		Expect(s.TotalAccesses).To(Equal(400))
		Expect(s.HitRate).To(Equal(0.0))
		Expect(s.MissCount).To(Equal(400.0))
		Expect(s.BWCycles).To(Equal(uint64(40)))
	})

	It("should summarize an empty sequence without failing", func() {
		s := engine.Compute(nil)

		Expect(s.TotalAccesses).To(Equal(0))
		Expect(s.HitRate).To(Equal(0.0))
		Expect(s.AMAT).To(Equal(0.0))
		Expect(s.BWCycles).To(Equal(uint64(0)))
	})

	It("should keep every per-access probability in range", func() {
		engine.AcceptHook(collector)

		s := engine.Compute(randomAccesses(3, 5000, 12, 3000))

		sum := 0.0
		for _, r := range collector.accesses {
			Expect(r.HitProbability).To(BeNumerically(">=", 0))
			Expect(r.HitProbability).To(BeNumerically("<=", 1))
			sum += r.HitProbability
		}

		n := float64(s.TotalAccesses)
		Expect(s.ExpectedHits).To(BeNumerically("~", sum, 1e-6))
		Expect(s.HitRate * n).To(BeNumerically("~", s.ExpectedHits, 1e-6))
		Expect(s.MissCount).To(BeNumerically("~", n-s.ExpectedHits, 1e-6))
		Expect(s.Histogram.Total()).To(Equal(uint64(5000)))
	})

	It("should give the first access to every line the saturated distance", func() {
		engine.AcceptHook(collector)

		accesses := randomAccesses(5, 2000, 4, 300)
		engine.Compute(accesses)

		seen := make(map[uint64]bool)
		for i, r := range collector.accesses {
			if !seen[accesses[i].Line] {
				Expect(r.Temporal).To(Equal(uint64(DMax)))
			} else {
				Expect(r.Temporal).To(BeNumerically("<", DMax))
			}

			seen[accesses[i].Line] = true
		}
	})

	It("should be deterministic", func() {
		accesses := randomAccesses(9, 3000, 12, 500)

		Expect(engine.Compute(accesses)).To(Equal(engine.Compute(accesses)))
	})

	It("should not depend on the distance strategy", func() {
		accesses := randomAccesses(11, 3000, 12, 500)
		linear := MakeBuilder().WithStrategy(StrategyLinearScan).Build()

		Expect(linear.Compute(accesses)).To(Equal(engine.Compute(accesses)))
	})

	It("should publish the summary to hooks", func() {
		engine.AcceptHook(collector)

		s := engine.Compute([]Access{{1, 2}, {1, 2}})

		Expect(collector.summaries).To(HaveLen(1))
		Expect(collector.summaries[0].Summary).To(Equal(s))
	})

	It("should invoke hooks once per access and once at the end", func() {
		hook := NewMockHook(mockCtrl)
		engine.AcceptHook(hook)

		hook.EXPECT().Func(gomock.Any()).Times(4)

		engine.Compute([]Access{{0, 1}, {0, 2}, {0, 1}})
	})

	Context("when reading tables", func() {
		It("should accept two-column non-negative tables", func() {
			s, err := engine.ComputeTable([][]int64{{0, 0}, {0, 1}, {0, 0}})

			Expect(err).NotTo(HaveOccurred())
			Expect(s.TotalAccesses).To(Equal(3))
		})

		It("should reject rows with the wrong number of columns", func() {
			_, err := engine.ComputeTable([][]int64{{0, 0}, {1}})

			Expect(IsInputShapeError(err)).To(BeTrue())
		})

		It("should reject negative values", func() {
			_, err := engine.ComputeTable([][]int64{{0, -4}})

			Expect(IsInputShapeError(err)).To(BeTrue())
			Expect(IsInputIOError(err)).To(BeFalse())
		})
	})

	Context("when loading from a source", func() {
		var src *MockSource

		BeforeEach(func() {
			src = NewMockSource(mockCtrl)
			src.EXPECT().Name().Return("layer0").AnyTimes()
		})

		It("should estimate the loaded sequence", func() {
			src.EXPECT().Load().Return([]Access{{0, 3}, {1, 3}}, nil)

			s, err := engine.ComputeFrom(src)

			Expect(err).NotTo(HaveOccurred())
			Expect(s.TotalAccesses).To(Equal(2))
		})

		It("should report load failures as input I/O errors", func() {
			cause := errors.New("disk gone")
			src.EXPECT().Load().Return(nil, cause)

			_, err := engine.ComputeFrom(src)

			Expect(IsInputIOError(err)).To(BeTrue())
			Expect(errors.Is(err, cause)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("layer0"))
		})

		It("should pass shape errors through", func() {
			src.EXPECT().Load().Return(nil, NewInputShapeError("3 columns"))

			_, err := engine.ComputeFrom(src)

			Expect(IsInputShapeError(err)).To(BeTrue())
			Expect(IsInputIOError(err)).To(BeFalse())
		})
	})

	It("should refuse invalid configurations", func() {
		Expect(func() { MakeBuilder().WithLineSize(24).Build() }).To(Panic())
	})

	It("should serve a slice source", func() {
		src := SliceSource{SourceName: "mem", Accesses: []Access{{0, 1}}}

		s, err := engine.ComputeFrom(src)

		Expect(err).NotTo(HaveOccurred())
		Expect(s.TotalAccesses).To(Equal(1))
	})
})
