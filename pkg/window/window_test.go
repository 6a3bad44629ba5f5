package window

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindow_ZeroValue(t *testing.T) {
	t.Parallel()
	var w Window

	require.Zero(t, w.Len())
	require.False(t, w.Contains(1))
	require.Zero(t, w.Mean())
	_, ok := w.EvictOldest()
	require.False(t, ok)

	require.True(t, w.Add(1))
	require.Equal(t, []int64{1}, w.Values())
}

func TestWindow_AddRejectsDuplicates(t *testing.T) {
	t.Parallel()
	w := NewWindow(3, 1, 3, 2, 1)

	require.Equal(t, []int64{3, 1, 2}, w.Values())
	require.False(t, w.Add(2))
	require.True(t, w.Add(4))
	require.Equal(t, []int64{3, 1, 2, 4}, w.Values())
}

func TestWindow_TrimTo(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		values      []int64
		n           int
		wantEvicted []int64
		wantValues  []int64
	}{
		{name: "no trim when under bound", values: []int64{1, 2}, n: 3, wantValues: []int64{1, 2}},
		{name: "no trim at bound", values: []int64{1, 2, 3}, n: 3, wantValues: []int64{1, 2, 3}},
		{name: "trims oldest first", values: []int64{1, 2, 3, 4, 5}, n: 2, wantEvicted: []int64{1, 2, 3}, wantValues: []int64{4, 5}},
		{name: "negative bound empties", values: []int64{1, 2}, n: -1, wantEvicted: []int64{1, 2}, wantValues: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := NewWindow(tt.values...)
			require.Equal(t, tt.wantEvicted, w.TrimTo(tt.n))
			require.Equal(t, tt.wantValues, w.Values())
		})
	}
}

func TestWindow_EvictedValueCanReturn(t *testing.T) {
	t.Parallel()
	w := NewWindow(1, 2)
	v, ok := w.EvictOldest()
	require.True(t, ok)
	require.Equal(t, int64(1), v)
	require.False(t, w.Contains(1))

	require.True(t, w.Add(1))
	require.Equal(t, []int64{2, 1}, w.Values())
}

func TestWindow_Clear(t *testing.T) {
	t.Parallel()
	w := NewWindow(1, 2, 3)
	w.Clear()

	require.Zero(t, w.Len())
	require.False(t, w.Contains(2))
	require.True(t, w.Add(2))
}
