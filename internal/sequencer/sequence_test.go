package sequencer

import (
	"reflect"
	"testing"
)

func TestBuildSequence(t *testing.T) {
	tests := []struct {
		name   string
		refs   []int
		mode   LoopMode
		total  int
		order  []int
		global []int
	}{
		{"forward", []int{1, 2, 3}, Forward, 3, []int{0, 1, 2}, []int{0, 1, 2}},
		{"backward", []int{1, 2, 3}, Backward, 3, []int{2, 1, 0}, []int{2, 1, 0}},
		{"pingpong four", []int{1, 2, 3, 4}, PingPong, 4, []int{0, 1, 2, 3, 2, 1}, []int{0, 1, 2, 3, 2, 1}},
		{"pingpong single", []int{2}, PingPong, 4, []int{0}, []int{1}},
		{"pingpong two", []int{1, 2}, PingPong, 2, []int{0, 1}, []int{0, 1}},
		{"invalid skipped", []int{1, 9, 0, 2}, Forward, 2, []int{0, 3}, []int{0, 1}},
		{"pingpong over valid positions", []int{5, 1, 2, 7, 3}, PingPong, 3, []int{1, 2, 4, 2}, []int{0, 1, 2, 1}},
		{"duplicates kept", []int{2, 2, 1}, Forward, 2, []int{0, 1, 2}, []int{1, 1, 0}},
		{"all invalid", []int{4, 5}, Forward, 3, nil, nil},
		{"empty", nil, Forward, 3, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := BuildSequence(&Animation{FrameRefs: tt.refs, LoopMode: tt.mode}, tt.total)
			if len(seq.Order) != len(tt.order) || (len(tt.order) > 0 && !reflect.DeepEqual(seq.Order, tt.order)) {
				t.Errorf("order = %v, want %v", seq.Order, tt.order)
			}
			if got := seq.GlobalOrder(); len(tt.global) > 0 && !reflect.DeepEqual(got, tt.global) {
				t.Errorf("global = %v, want %v", got, tt.global)
			}
			if len(seq.Entries) != len(tt.refs) {
				t.Errorf("entries = %d, want one per reference (%d)", len(seq.Entries), len(tt.refs))
			}
		})
	}
}

func TestPingPongOrder(t *testing.T) {
	for k := 0; k <= 6; k++ {
		order := PingPongOrder(k)
		t.Logf("k=%d order=%v", k, order)
		for i := range order {
			next := order[(i+1)%len(order)]
			if len(order) > 1 && order[i] == next {
				t.Errorf("k=%d repeats %d at the seam", k, next)
			}
		}
		if k >= 2 && len(order) != 2*k-2 {
			t.Errorf("k=%d length %d", k, len(order))
		}
	}
}

func TestLoopModeCycle(t *testing.T) {
	m := Forward
	want := []LoopMode{Backward, PingPong, Forward}
	for _, w := range want {
		m = m.Next()
		if m != w {
			t.Fatalf("Next = %s, want %s", m, w)
		}
	}
	if _, err := ParseLoopMode("sideways"); err == nil {
		t.Error("unknown mode should fail")
	}
	if m, _ := ParseLoopMode(""); m != Forward {
		t.Errorf("empty mode = %s", m)
	}
}
