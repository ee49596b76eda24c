package trace

import (
	"io"
	"os"
	"path/filepath"

	"github.com/azaharalam/PPT-TPU-MEM/logger"
	"github.com/azaharalam/PPT-TPU-MEM/reusedistance"
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func writeLayer(parent, name string, traces map[Operand]string) string {
	dir := filepath.Join(parent, name)
	Expect(os.MkdirAll(dir, 0o755)).To(Succeed())

	for op, content := range traces {
		path := filepath.Join(dir, op.FileName())
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
	}

	return dir
}

var _ = Describe("Processor", func() {
	var (
		parent    string
		processor *Processor
	)

	BeforeEach(func() {
		parent = GinkgoT().TempDir()
		processor = NewProcessor(DefaultConfig(),
			logger.NewLoggerTo(io.Discard, "ERROR", "trace-test"))
	})

	It("should panic on an invalid config", func() {
		c := DefaultConfig()
		c.ArrayHeight = 0

		Expect(func() { NewProcessor(c, nil) }).To(Panic())
	})

	It("should merge and interleave a layer", func() {
		dir := writeLayer(parent, "layer0", map[Operand]string{
			Ifmap:  "0,16,32\n2,48,64\n",
			Filter: "1,10000000\n",
			Ofmap:  "3,20000016\n",
		})

		out, err := processor.ProcessLayer(dir)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(filepath.Join(dir, UnifiedNpyName)))

		f, err := os.Open(filepath.Join(dir, UnifiedCSVName))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		events, err := ReadUnified(f)
		Expect(err).NotTo(HaveOccurred())
		Expect(cycles(events)).To(Equal([]int64{0, 0, 1, 2, 2, 3}))

		accesses, err := LoadAccesses(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(accesses).To(Equal([]reusedistance.Access{
			{Row: 0, Line: 1},
			{Row: 1, Line: 2},
			{Row: 0, Line: 0},
			{Row: 1, Line: 4},
			{Row: 0, Line: 3},
			{Row: 0, Line: 1},
		}))
	})

	It("should mark a missing operand trace", func() {
		dir := writeLayer(parent, "layer0", map[Operand]string{
			Ifmap:  "0,16\n",
			Filter: "0,10000000\n",
		})

		_, err := processor.ProcessLayer(dir)

		Expect(errors.Is(err, ErrMissingTrace)).To(BeTrue())
	})

	It("should remove stale outputs before merging", func() {
		dir := writeLayer(parent, "layer0", map[Operand]string{
			Ifmap: "0,16\n",
		})
		stale := filepath.Join(dir, UnifiedNpyName)
		Expect(os.WriteFile(stale, []byte("stale"), 0o644)).To(Succeed())

		_, err := processor.ProcessLayer(dir)

		Expect(err).To(HaveOccurred())
		Expect(stale).NotTo(BeAnExistingFile())
	})

	It("should process layers in order and skip broken ones", func() {
		complete := map[Operand]string{
			Ifmap:  "0,16\n",
			Filter: "0,10000000\n",
			Ofmap:  "1,20000000\n",
		}
		writeLayer(parent, "layer1", complete)
		writeLayer(parent, "layer0", complete)
		writeLayer(parent, "layer2", map[Operand]string{Ifmap: "0,16\n"})
		writeLayer(parent, "other", complete)

		outputs, err := processor.Run(parent)

		Expect(err).NotTo(HaveOccurred())
		Expect(outputs).To(Equal([]string{
			filepath.Join(parent, "layer0", UnifiedNpyName),
			filepath.Join(parent, "layer1", UnifiedNpyName),
		}))
	})

	It("should reject a parent that is not a directory", func() {
		path := filepath.Join(parent, "file.txt")
		Expect(os.WriteFile(path, nil, 0o644)).To(Succeed())

		_, err := processor.Run(path)
		Expect(err).To(HaveOccurred())

		_, err = processor.Run(filepath.Join(parent, "missing"))
		Expect(err).To(HaveOccurred())
	})

	It("should return nothing when there are no layers", func() {
		outputs, err := processor.Run(parent)

		Expect(err).NotTo(HaveOccurred())
		Expect(outputs).To(BeEmpty())
	})
})
