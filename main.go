// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"

	"musicviz/cmd"
)

// main delegates to the CLI. PortAudio lifecycle is owned by the commands
// that need it, so file analysis works on machines without audio drivers.
func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
