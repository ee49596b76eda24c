package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type namedHook struct {
	name  string
	order *[]string
}

func (h *namedHook) Func(HookCtx) {
	*h.order = append(*h.order, h.name)
}

var _ = Describe("HookableBase", func() {
	var h *HookableBase

	BeforeEach(func() {
		h = &HookableBase{}
	})

	It("should invoke hooks in registration order", func() {
		var order []string

		h.AcceptHook(&namedHook{name: "a", order: &order})
		h.AcceptHook(&namedHook{name: "b", order: &order})

		h.InvokeHook(HookCtx{Pos: HookPosTaskStart})

		Expect(order).To(Equal([]string{"a", "b"}))
		Expect(h.NumHooks()).To(Equal(2))
		Expect(h.Hooks()).To(HaveLen(2))
	})

	It("should refuse the same hook twice", func() {
		hook := NewBusyTimeTracer(&stubTimeTeller{}, nil)
		h.AcceptHook(hook)

		Expect(func() { h.AcceptHook(hook) }).
			To(PanicWith("hook registered twice"))
		Expect(h.NumHooks()).To(Equal(1))
	})
})
