package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubTimeTeller struct {
	now float64
}

func (t *stubTimeTeller) Now() float64 {
	return t.now
}

var _ = Describe("BusyTimeTracer", func() {
	var (
		timeTeller *stubTimeTeller
		t          *BusyTimeTracer
	)

	BeforeEach(func() {
		timeTeller = &stubTimeTeller{}

		t = NewBusyTimeTracer(timeTeller, nil)
	})

	It("should track busy time, one task", func() {
		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "1"})

		timeTeller.now = 2
		t.EndTask(TaskEnd{ID: "1"})

		Expect(t.BusyTime()).To(Equal(1.0))
	})

	It("should track busy time, two tasks", func() {
		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "1"})
		timeTeller.now = 2
		t.EndTask(TaskEnd{ID: "1"})

		timeTeller.now = 3
		t.StartTask(TaskStart{ID: "2"})
		timeTeller.now = 4
		t.EndTask(TaskEnd{ID: "2"})

		Expect(t.BusyTime()).To(Equal(2.0))
	})

	It("should track busy time, two tasks overlap", func() {
		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "1"})

		timeTeller.now = 1.5
		t.StartTask(TaskStart{ID: "2"})

		timeTeller.now = 2
		t.EndTask(TaskEnd{ID: "1"})

		timeTeller.now = 3
		t.EndTask(TaskEnd{ID: "2"})

		Expect(t.BusyTime()).To(Equal(2.0))
	})

	It("should track busy time, one task inside another", func() {
		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "1"})

		timeTeller.now = 2
		t.StartTask(TaskStart{ID: "2"})

		timeTeller.now = 3
		t.EndTask(TaskEnd{ID: "2"})

		timeTeller.now = 5
		t.EndTask(TaskEnd{ID: "1"})

		Expect(t.BusyTime()).To(Equal(4.0))
	})

	It("should skip filtered tasks", func() {
		t = NewBusyTimeTracer(timeTeller, func(task TaskStart) bool {
			return task.Kind == "layer"
		})

		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "1", Kind: "other"})
		timeTeller.now = 2
		t.EndTask(TaskEnd{ID: "1"})

		Expect(t.BusyTime()).To(Equal(0.0))
	})

	It("should close unfinished tasks on termination", func() {
		timeTeller.now = 1
		t.StartTask(TaskStart{ID: "1"})

		timeTeller.now = 4
		t.TerminateAllTasks()

		Expect(t.BusyTime()).To(Equal(3.0))
	})

	It("should be driven by hook positions", func() {
		timeTeller.now = 1
		t.Func(HookCtx{Pos: HookPosTaskStart, Item: TaskStart{ID: "1"}})

		timeTeller.now = 2.5
		t.Func(HookCtx{Pos: HookPosTaskEnd, Item: TaskEnd{ID: "1"}})

		Expect(t.BusyTime()).To(Equal(1.5))
	})
})
