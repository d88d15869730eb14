// Command collatz-probe retries an HTTP health check on this participant's
// slot of the fleet-wide Collatz backoff schedule.
//
// Usage:
//
//	collatz-probe [config-file]
//
// Without a config file, settings come from defaults and the environment
// (POD_NAME, TARGET_URL, BACKOFF_SLOTS_M, COLLATZ_SEED, MAX_RETRIES, ...).
// The JSON outcome is printed to stdout.
//
// Exit status is 0 when the target was reached, 2 when retries ran out, and
// 1 for any other failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gurre/collatz-backoff-go/entrypoint/probe"
	"github.com/gurre/collatz-backoff-go/orchestration/prober"
)

func main() {
	var configPath string
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	if _, err := probe.Run(context.Background(), configPath); err != nil {
		fmt.Fprintf(os.Stderr, "collatz-probe: %s\n", err)
		if errors.Is(err, prober.ErrExhausted) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
