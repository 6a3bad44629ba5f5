package window

import (
	"github.com/gammazero/deque"
)

// Window is an insertion-ordered set of int64 values. The front of the window
// holds the oldest value. The zero value is an empty window ready to use.
//
// Window is not safe for concurrent use; Store guards it.
type Window struct {
	values deque.Deque[int64]
	index  map[int64]struct{}
}

// NewWindow returns a window holding values in order. Later duplicates are
// dropped.
func NewWindow(values ...int64) *Window {
	w := &Window{}
	for _, v := range values {
		w.Add(v)
	}
	return w
}

// Len returns the number of values in the window.
func (w *Window) Len() int {
	return w.values.Len()
}

// Contains reports whether v is in the window.
func (w *Window) Contains(v int64) bool {
	_, ok := w.index[v]
	return ok
}

// Add appends v at the back of the window. It returns false and leaves the
// window untouched when v is already present.
func (w *Window) Add(v int64) bool {
	if w.Contains(v) {
		return false
	}
	if w.index == nil {
		w.index = make(map[int64]struct{})
	}
	w.index[v] = struct{}{}
	w.values.PushBack(v)
	return true
}

// EvictOldest removes and returns the front (oldest) value.
// ok is false when the window is empty.
func (w *Window) EvictOldest() (v int64, ok bool) {
	if w.Len() == 0 {
		return 0, false
	}
	v = w.values.PopFront()
	delete(w.index, v)
	return v, true
}

// TrimTo evicts oldest values until at most n remain and returns them in
// eviction order.
func (w *Window) TrimTo(n int) []int64 {
	if n < 0 {
		n = 0
	}
	var evicted []int64
	for w.Len() > n {
		v, _ := w.EvictOldest()
		evicted = append(evicted, v)
	}
	return evicted
}

// Values returns an ordered copy of the window, oldest first.
func (w *Window) Values() []int64 {
	out := make([]int64, w.Len())
	for i := range out {
		out[i] = w.values.At(i)
	}
	return out
}

// Mean returns the arithmetic mean of the window, or 0 when it is empty.
func (w *Window) Mean() float64 {
	n := w.Len()
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(w.values.At(i))
	}
	return sum / float64(n)
}

// Clear removes every value.
func (w *Window) Clear() {
	w.values.Clear()
	clear(w.index)
}
