package reusedistance

// timeline counts marks placed on access timestamps. Each distinct key holds
// exactly one mark at the time of its latest access, so the number of marks
// at or after a timestamp is the number of keys touched since then.
type timeline struct {
	tree  []int32 // 1-based Fenwick tree
	raw   []int32
	total int
}

func newTimeline(capacity int) *timeline {
	if capacity < 16 {
		capacity = 16
	}

	return &timeline{
		tree: make([]int32, capacity+1),
		raw:  make([]int32, capacity),
	}
}

func (t *timeline) grow(pos int) {
	if pos < len(t.raw) {
		return
	}

	size := len(t.raw) * 2
	for size <= pos {
		size *= 2
	}

	raw := make([]int32, size)
	copy(raw, t.raw)

	tree := make([]int32, size+1)
	for i := 1; i <= size; i++ {
		tree[i] += raw[i-1]

		parent := i + (i & -i)
		if parent <= size {
			tree[parent] += tree[i]
		}
	}

	t.raw = raw
	t.tree = tree
}

func (t *timeline) add(pos int, delta int32) {
	t.grow(pos)

	t.raw[pos] += delta
	t.total += int(delta)

	for i := pos + 1; i < len(t.tree); i += i & -i {
		t.tree[i] += delta
	}
}

func (t *timeline) mark(pos int) {
	t.add(pos, 1)
}

func (t *timeline) unmark(pos int) {
	t.add(pos, -1)
}

// countUpTo returns the number of marks at timestamps 0..pos.
func (t *timeline) countUpTo(pos int) int {
	if pos < 0 {
		return 0
	}

	if pos >= len(t.raw) {
		pos = len(t.raw) - 1
	}

	sum := 0
	for i := pos + 1; i > 0; i -= i & -i {
		sum += int(t.tree[i])
	}

	return sum
}

// countFrom returns the number of marks at timestamps pos and later.
func (t *timeline) countFrom(pos int) int {
	return t.total - t.countUpTo(pos-1)
}

// countAfter returns the number of marks strictly after pos.
func (t *timeline) countAfter(pos int) int {
	return t.total - t.countUpTo(pos)
}
