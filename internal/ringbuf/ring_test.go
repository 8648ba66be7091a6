package ringbuf

import (
	"slices"
	"testing"
)

func TestRingPushAndSnapshot(t *testing.T) {
	tests := []struct {
		name        string
		capacity    int
		push        []int
		want        []int
		wantEvicted []int
	}{
		{name: "empty", capacity: 3, push: nil, want: []int{}},
		{name: "partial", capacity: 3, push: []int{1, 2}, want: []int{1, 2}},
		{name: "exactly full", capacity: 3, push: []int{1, 2, 3}, want: []int{1, 2, 3}},
		{name: "wraps", capacity: 3, push: []int{1, 2, 3, 4, 5}, want: []int{3, 4, 5}, wantEvicted: []int{1, 2}},
		{name: "zero capacity clamps to one", capacity: 0, push: []int{1, 2}, want: []int{2}, wantEvicted: []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New[int](tt.capacity)
			var evicted []int
			for _, v := range tt.push {
				if old, ok := r.Push(v); ok {
					evicted = append(evicted, old)
				}
			}
			if got := r.Snapshot(); !slices.Equal(got, tt.want) {
				t.Fatalf("Snapshot() = %v, want %v", got, tt.want)
			}
			if !slices.Equal(evicted, tt.wantEvicted) {
				t.Fatalf("evicted = %v, want %v", evicted, tt.wantEvicted)
			}
			if r.Len() != len(tt.want) {
				t.Fatalf("Len() = %d, want %d", r.Len(), len(tt.want))
			}
		})
	}
}

func TestRingNewest(t *testing.T) {
	r := New[string](2)
	if _, ok := r.Newest(); ok {
		t.Fatal("Newest() on empty ring reported ok")
	}
	for _, v := range []string{"a", "b", "c"} {
		r.Push(v)
	}
	if got, ok := r.Newest(); !ok || got != "c" {
		t.Fatalf("Newest() = %q, %v, want c, true", got, ok)
	}
}

func TestRingResize(t *testing.T) {
	r := New[int](5)
	for i := 1; i <= 7; i++ {
		r.Push(i)
	}
	r.Resize(2)
	if got := r.Snapshot(); !slices.Equal(got, []int{6, 7}) {
		t.Fatalf("after shrink Snapshot() = %v, want [6 7]", got)
	}
	r.Resize(4)
	r.Push(8)
	if got := r.Snapshot(); !slices.Equal(got, []int{6, 7, 8}) {
		t.Fatalf("after grow Snapshot() = %v, want [6 7 8]", got)
	}
	if r.Cap() != 4 {
		t.Fatalf("Cap() = %d, want 4", r.Cap())
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	r := New[int](2)
	r.Push(1)
	snap := r.Snapshot()
	snap[0] = 99
	if got := r.Snapshot(); got[0] != 1 {
		t.Fatalf("ring mutated through snapshot: %v", got)
	}
}
