// Command collatz-offsets prints the per-step permutation and the slot and
// wait it assigns to each id.
//
// Usage:
//
//	collatz-offsets [-slots 1024] [-seed 27] [-ids 0,1,2,3] [-steps 6]
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gurre/collatz-backoff-go/entrypoint/offsets"
)

func main() {
	opts := offsets.DefaultOptions()

	var idsStr string
	flag.Int64Var(&opts.Slots, "slots", opts.Slots, "Slot count M")
	flag.Uint64Var(&opts.Seed, "seed", opts.Seed, "Collatz seed")
	flag.StringVar(&idsStr, "ids", "", "Comma-separated ids (default: 0-7)")
	flag.IntVar(&opts.Steps, "steps", opts.Steps, "Retry steps to print")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: collatz-offsets [flags]\n\nPrints the backoff permutation per retry step.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if idsStr != "" {
		opts.IDs = opts.IDs[:0]
		for _, s := range strings.Split(idsStr, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "collatz-offsets: bad id %q\n", s)
				os.Exit(1)
			}
			opts.IDs = append(opts.IDs, id)
		}
	}

	if err := offsets.Run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "collatz-offsets: %s\n", err)
		os.Exit(1)
	}
}
