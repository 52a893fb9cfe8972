// Command p8c cross-compiles P8 source files to 6502/65C02 assembly.
package main

import (
	"os"

	"github.com/p8c/p8c/cmd/p8c/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
