package trace

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/azaharalam/PPT-TPU-MEM/reusedistance"
	"github.com/cockroachdb/errors"
)

var npyMagic = []byte("\x93NUMPY")

// npyInitialCap bounds the buffer reserved from the header before any data
// has been read.
const npyInitialCap = 1 << 16

var (
	descrPattern   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	fortranPattern = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapePattern   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

type npyHeader struct {
	order   binary.ByteOrder
	kind    byte // 'i' or 'u'
	size    int
	fortran bool
	shape   []int
}

// SaveAccesses writes accesses as an (N, 2) NumPy array of (row, line) pairs.
// The array uses uint32 unless a value needs 64 bits.
func SaveAccesses(path string, accesses []reusedistance.Access) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)

	err = WriteAccesses(w, accesses)
	if err == nil {
		err = w.Flush()
	}

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return err
}

// WriteAccesses encodes accesses as an (N, 2) NumPy array.
func WriteAccesses(w io.Writer, accesses []reusedistance.Access) error {
	descr := "<u4"
	for _, a := range accesses {
		if a.Row > math.MaxUint32 || a.Line > math.MaxUint32 {
			descr = "<u8"
			break
		}
	}

	dict := fmt.Sprintf(
		"{'descr': '%s', 'fortran_order': False, 'shape': (%d, 2), }",
		descr, len(accesses))

	// magic, version, and header length take 10 bytes; pad to 64.
	padding := 64 - (10+len(dict)+1)%64
	if padding == 64 {
		padding = 0
	}

	header := dict + strings.Repeat(" ", padding) + "\n"

	var prefix bytes.Buffer
	prefix.Write(npyMagic)
	prefix.Write([]byte{1, 0})
	_ = binary.Write(&prefix, binary.LittleEndian, uint16(len(header)))
	prefix.WriteString(header)

	if _, err := w.Write(prefix.Bytes()); err != nil {
		return err
	}

	if descr == "<u4" {
		buf := make([]byte, 8)
		for _, a := range accesses {
			binary.LittleEndian.PutUint32(buf[0:], uint32(a.Row))
			binary.LittleEndian.PutUint32(buf[4:], uint32(a.Line))

			if _, err := w.Write(buf); err != nil {
				return err
			}
		}

		return nil
	}

	buf := make([]byte, 16)
	for _, a := range accesses {
		binary.LittleEndian.PutUint64(buf[0:], a.Row)
		binary.LittleEndian.PutUint64(buf[8:], a.Line)

		if _, err := w.Write(buf); err != nil {
			return err
		}
	}

	return nil
}

// LoadAccesses reads an (N, 2) integer NumPy array of (row, line) pairs.
func LoadAccesses(path string) ([]reusedistance.Access, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, reusedistance.NewInputIOError(err, "opening %s", path)
	}
	defer f.Close()

	accesses, err := ReadAccesses(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}

	return accesses, nil
}

// ReadAccesses decodes an (N, 2) integer NumPy array. Arrays of another shape
// or element type, and negative elements, are input shape errors. Truncated
// or undecodable data are input I/O errors.
func ReadAccesses(r io.Reader) ([]reusedistance.Access, error) {
	h, err := readNpyHeader(r)
	if err != nil {
		return nil, err
	}

	if len(h.shape) != 2 || h.shape[1] != 2 {
		return nil, reusedistance.NewInputShapeError(
			"array shape %v is not (N, 2)", h.shape)
	}

	n := h.shape[0]
	if n < 0 || n > math.MaxInt/2 {
		return nil, reusedistance.NewInputIOError(
			errors.Newf("%d rows", n), "array header is corrupt")
	}

	total := 2 * n
	values := make([]uint64, 0, min(total, npyInitialCap))

	buf := make([]byte, h.size)
	for i := 0; i < total; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, reusedistance.NewInputIOError(
				err, "reading element %d of %d", i, total)
		}

		v, negative := h.decode(buf)
		if negative {
			return nil, reusedistance.NewInputShapeError(
				"element %d is negative", i)
		}

		values = append(values, v)
	}

	accesses := make([]reusedistance.Access, n)
	for i := range accesses {
		if h.fortran {
			accesses[i] = reusedistance.Access{Row: values[i], Line: values[n+i]}
		} else {
			accesses[i] = reusedistance.Access{Row: values[2*i], Line: values[2*i+1]}
		}
	}

	return accesses, nil
}

func readNpyHeader(r io.Reader) (npyHeader, error) {
	var h npyHeader

	prefix := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return h, reusedistance.NewInputIOError(err, "reading npy magic")
	}

	if !bytes.Equal(prefix[:len(npyMagic)], npyMagic) {
		return h, reusedistance.NewInputIOError(
			errors.New("bad magic"), "not an npy file")
	}

	var headerLen int

	switch major := prefix[len(npyMagic)]; major {
	case 1:
		var l uint16
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return h, reusedistance.NewInputIOError(err, "reading npy header length")
		}

		headerLen = int(l)
	case 2, 3:
		var l uint32
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return h, reusedistance.NewInputIOError(err, "reading npy header length")
		}

		headerLen = int(l)
	default:
		return h, reusedistance.NewInputIOError(
			errors.Newf("version %d", major), "unsupported npy format")
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return h, reusedistance.NewInputIOError(err, "reading npy header")
	}

	return parseNpyHeader(string(header))
}

func parseNpyHeader(header string) (npyHeader, error) {
	var h npyHeader

	descr := descrPattern.FindStringSubmatch(header)
	fortran := fortranPattern.FindStringSubmatch(header)
	shape := shapePattern.FindStringSubmatch(header)

	if descr == nil || fortran == nil || shape == nil {
		return h, reusedistance.NewInputIOError(
			errors.Newf("header %q", header), "malformed npy header")
	}

	if err := h.parseDescr(descr[1]); err != nil {
		return h, err
	}

	h.fortran = fortran[1] == "True"

	for _, dim := range strings.Split(shape[1], ",") {
		dim = strings.TrimSpace(dim)
		if dim == "" {
			continue
		}

		v, err := strconv.Atoi(dim)
		if err != nil || v < 0 {
			return h, reusedistance.NewInputIOError(
				errors.Newf("dimension %q", dim), "malformed npy shape")
		}

		h.shape = append(h.shape, v)
	}

	return h, nil
}

func (h *npyHeader) parseDescr(descr string) error {
	if len(descr) != 3 {
		return reusedistance.NewInputShapeError(
			"element type %q is not an integer type", descr)
	}

	switch descr[0] {
	case '<', '|', '=':
		h.order = binary.LittleEndian
	case '>':
		h.order = binary.BigEndian
	default:
		return reusedistance.NewInputShapeError("unknown byte order in %q", descr)
	}

	h.kind = descr[1]
	if h.kind != 'i' && h.kind != 'u' {
		return reusedistance.NewInputShapeError(
			"element type %q is not an integer type", descr)
	}

	switch descr[2] {
	case '1', '2', '4', '8':
		h.size = int(descr[2] - '0')
	default:
		return reusedistance.NewInputShapeError(
			"element type %q has an unsupported size", descr)
	}

	return nil
}

// decode returns the element in buf and whether it is negative.
func (h *npyHeader) decode(buf []byte) (uint64, bool) {
	var u uint64

	switch h.size {
	case 1:
		u = uint64(buf[0])
	case 2:
		u = uint64(h.order.Uint16(buf))
	case 4:
		u = uint64(h.order.Uint32(buf))
	case 8:
		u = h.order.Uint64(buf)
	}

	if h.kind == 'u' {
		return u, false
	}

	var s int64

	switch h.size {
	case 1:
		s = int64(int8(u))
	case 2:
		s = int64(int16(u))
	case 4:
		s = int64(int32(u))
	case 8:
		s = int64(u)
	}

	if s < 0 {
		return 0, true
	}

	return uint64(s), false
}

// NpySource reads an access sequence from a .npy file.
type NpySource struct {
	Path  string
	Label string
}

// Name returns the label of the source, or its path if there is no label.
func (s NpySource) Name() string {
	if s.Label != "" {
		return s.Label
	}

	return s.Path
}

// Load reads the file.
func (s NpySource) Load() ([]reusedistance.Access, error) {
	return LoadAccesses(s.Path)
}
