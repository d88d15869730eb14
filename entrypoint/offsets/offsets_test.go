package offsets

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gurre/collatz-backoff-go/logic/backoff"
)

// TestRun_DefaultSeed pins the first rows for the default seed over 64 slots
// against known permutation parameters and id 7's waits.
func TestRun_DefaultSeed(t *testing.T) {
	opts := DefaultOptions()
	opts.Slots = 64
	opts.IDs = []int64{0, 7}
	opts.Steps = 3

	var out bytes.Buffer
	if err := Run(opts, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d:\n%s", len(lines), out.String())
	}
	want := [][]string{
		{"k", "a", "b", "degraded", "id=0", "id=7"},
		{"0", "41", "5", "false", "5@55ms", "36@86ms"},
		{"1", "63", "7", "false", "7@107ms", "0@100ms"},
		{"2", "31", "3", "false", "3@203ms", "28@228ms"},
	}
	for i, line := range lines {
		if got := strings.Fields(line); strings.Join(got, " ") != strings.Join(want[i], " ") {
			t.Errorf("line %d = %v, want %v", i, got, want[i])
		}
	}
}

// TestRun_InvalidSlots verifies config errors surface with the sentinel.
func TestRun_InvalidSlots(t *testing.T) {
	opts := DefaultOptions()
	opts.Slots = 0
	if err := Run(opts, &bytes.Buffer{}); !errors.Is(err, backoff.ErrInvalidConfig) {
		t.Fatalf("err = %v", err)
	}
}

// TestRun_NegativeID verifies a negative id is rejected rather than wrapped.
func TestRun_NegativeID(t *testing.T) {
	opts := DefaultOptions()
	opts.IDs = []int64{-1}
	if err := Run(opts, &bytes.Buffer{}); !errors.Is(err, backoff.ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}
