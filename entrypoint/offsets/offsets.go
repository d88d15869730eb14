// Package offsets prints the permutation and the resulting slots and waits
// for a handful of ids, for eyeballing a schedule before rolling it out.
package offsets

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/gurre/collatz-backoff-go/logic/backoff"
)

// Options holds the offsets CLI arguments.
type Options struct {
	Slots int64
	Seed  uint64
	IDs   []int64
	Steps int
}

// DefaultOptions returns the schedule defaults with ids 0 through 7.
func DefaultOptions() Options {
	cfg := backoff.DefaultConfig()
	return Options{
		Slots: cfg.Slots,
		Seed:  cfg.Seed,
		IDs:   []int64{0, 1, 2, 3, 4, 5, 6, 7},
		Steps: 6,
	}
}

// Run writes one row per retry step: the permutation's a and b, whether the
// step fell back to identity, and slot@wait for each id.
//
//	err := offsets.Run(offsets.DefaultOptions(), os.Stdout)
func Run(opts Options, w io.Writer) error {
	cfg := backoff.DefaultConfig()
	cfg.Slots = opts.Slots
	cfg.Seed = opts.Seed
	s, err := backoff.New(cfg)
	if err != nil {
		return fmt.Errorf("offsets: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "k\ta\tb\tdegraded")
	for _, id := range opts.IDs {
		fmt.Fprintf(tw, "\tid=%d", id)
	}
	fmt.Fprintln(tw)

	for k := range opts.Steps {
		p, err := s.AffineParams(k)
		if err != nil {
			return fmt.Errorf("offsets: %w", err)
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s", k, p.A, p.B, strconv.FormatBool(p.Degraded))
		for _, id := range opts.IDs {
			slot, err := s.OffsetSlot(id, k)
			if err != nil {
				return fmt.Errorf("offsets: %w", err)
			}
			wait, err := s.Wait(id, k)
			if err != nil {
				return fmt.Errorf("offsets: %w", err)
			}
			fmt.Fprintf(tw, "\t%d@%s", slot, wait)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
