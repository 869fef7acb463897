// Command broadphase is a demo and benchmarking harness for the broad-phase
// spatial indexing core. It is not a production component: the library
// itself has no CLI surface, no I/O, and no dependency on this binary.
package main

import (
	"fmt"
	"os"

	"github.com/arxos/broadphase/cmd/broadphase/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
