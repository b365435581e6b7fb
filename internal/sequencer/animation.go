// Package sequencer turns named animations (lists of 1-based frame numbers
// plus a loop mode) into traversal orders and plays them on a fixed clock.
package sequencer

import (
	"fmt"
	"strings"
)

type LoopMode string

const (
	Forward  LoopMode = "forward"
	Backward LoopMode = "backward"
	PingPong LoopMode = "pingpong"
)

var loopModes = []LoopMode{Forward, Backward, PingPong}

// ParseLoopMode accepts the three mode names, case-insensitively. Empty
// means Forward.
func ParseLoopMode(s string) (LoopMode, error) {
	switch LoopMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Forward:
		return Forward, nil
	case Backward:
		return Backward, nil
	case PingPong, "ping-pong":
		return PingPong, nil
	}
	return Forward, fmt.Errorf("unknown loop mode %q", s)
}

// Next cycles forward → backward → pingpong → forward.
func (m LoopMode) Next() LoopMode {
	for i, lm := range loopModes {
		if lm == m {
			return loopModes[(i+1)%len(loopModes)]
		}
	}
	return Backward
}

// Animation references rail frames by 1-based number. References are not
// validated when stored: out-of-range numbers are kept and skipped at
// playback time.
type Animation struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	FrameRefs []int    `json:"frameRefs" yaml:"frameRefs"`
	LoopMode  LoopMode `json:"loopMode" yaml:"loopMode"`
}

// Clone returns a deep copy.
func (a *Animation) Clone() *Animation {
	cp := *a
	cp.FrameRefs = append([]int(nil), a.FrameRefs...)
	return &cp
}
