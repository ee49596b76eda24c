package trace

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/azaharalam/PPT-TPU-MEM/reusedistance"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func npyBytes(descr string, fortran bool, shape string, data []byte) []byte {
	order := "False"
	if fortran {
		order = "True"
	}

	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }",
		descr, order, shape)
	header := dict + strings.Repeat(" ", 63-(10+len(dict))%64) + "\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(data)

	return buf.Bytes()
}

func int64Data(values ...int64) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, values)

	return buf.Bytes()
}

var _ = Describe("Npy", func() {
	It("should write an aligned uint32 array", func() {
		var buf bytes.Buffer

		err := WriteAccesses(&buf, []reusedistance.Access{{Row: 1, Line: 2}})

		Expect(err).NotTo(HaveOccurred())
		Expect((buf.Len() - 8) % 64).To(Equal(0))
		Expect(buf.String()).To(ContainSubstring("'descr': '<u4'"))
		Expect(buf.String()).To(ContainSubstring("'shape': (1, 2)"))
	})

	It("should switch to uint64 for wide values", func() {
		var buf bytes.Buffer
		accesses := []reusedistance.Access{{Row: 0, Line: math.MaxUint32 + 1}}

		Expect(WriteAccesses(&buf, accesses)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("'descr': '<u8'"))

		read, err := ReadAccesses(&buf)

		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(Equal(accesses))
	})

	It("should save and load a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "accesses.npy")
		accesses := []reusedistance.Access{
			{Row: 0, Line: 10}, {Row: 1, Line: 20}, {Row: 0, Line: 10},
		}

		Expect(SaveAccesses(path, accesses)).To(Succeed())

		read, err := LoadAccesses(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(Equal(accesses))

		src := NpySource{Path: path, Label: "layer0"}
		Expect(src.Name()).To(Equal("layer0"))
		Expect(NpySource{Path: path}.Name()).To(Equal(path))
	})

	It("should read signed arrays", func() {
		data := npyBytes("<i8", false, "(2, 2)", int64Data(1, 5, 2, 6))

		read, err := ReadAccesses(bytes.NewReader(data))

		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(Equal([]reusedistance.Access{
			{Row: 1, Line: 5}, {Row: 2, Line: 6},
		}))
	})

	It("should read fortran ordered arrays", func() {
		data := npyBytes("<i8", true, "(2, 2)", int64Data(1, 2, 5, 6))

		read, err := ReadAccesses(bytes.NewReader(data))

		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(Equal([]reusedistance.Access{
			{Row: 1, Line: 5}, {Row: 2, Line: 6},
		}))
	})

	It("should read an empty array", func() {
		data := npyBytes("<i8", false, "(0, 2)", nil)

		read, err := ReadAccesses(bytes.NewReader(data))

		Expect(err).NotTo(HaveOccurred())
		Expect(read).To(BeEmpty())
	})

	DescribeTable("shape errors",
		func(data []byte) {
			_, err := ReadAccesses(bytes.NewReader(data))

			Expect(reusedistance.IsInputShapeError(err)).To(BeTrue())
		},
		Entry("three columns", npyBytes("<i8", false, "(1, 3)", int64Data(1, 2, 3))),
		Entry("one dimension", npyBytes("<i8", false, "(2,)", int64Data(1, 2))),
		Entry("float elements", npyBytes("<f8", false, "(1, 2)", int64Data(1, 2))),
		Entry("negative element", npyBytes("<i8", false, "(1, 2)", int64Data(0, -4))),
	)

	DescribeTable("I/O errors",
		func(data []byte) {
			_, err := ReadAccesses(bytes.NewReader(data))

			Expect(reusedistance.IsInputIOError(err)).To(BeTrue())
		},
		Entry("empty input", []byte{}),
		Entry("bad magic", []byte("PK\x03\x04 not a numpy file")),
		Entry("truncated data", npyBytes("<i8", false, "(2, 2)", int64Data(1, 2, 3))),
		Entry("row count beyond the data",
			npyBytes("<i8", false, "(100000000000, 2)", int64Data(1, 2))),
		Entry("row count overflowing the element count",
			npyBytes("<i8", false, "(4611686018427387904, 2)", int64Data(1, 2))),
	)

	It("should report a missing file as an I/O error", func() {
		_, err := LoadAccesses(filepath.Join(GinkgoT().TempDir(), "none.npy"))

		Expect(reusedistance.IsInputIOError(err)).To(BeTrue())
	})
})
