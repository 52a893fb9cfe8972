// Package cmd implements the p8c command-line interface: a small cobra tree
// grounded on the teacher's cmd/dwscript/cmd (root.go/version.go/compile.go),
// generalized from DWScript's bytecode pipeline to P8's lex/parse/resolve/
// typecheck/fold/codegen pipeline.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version, GitCommit and BuildDate are set via -ldflags at build time,
// mirroring the teacher's cmd/dwscript version scheme.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "p8c",
	Short: "p8c cross-compiles P8 source to 6502/65C02 assembly",
	Long: `p8c compiles P8, a small statically-typed systems language for
6502-family microcomputers (Commodore-64/Commander-X16), straight to
assembly text suitable for an external assembler.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("p8c version {{.Version}} (%s, built %s)\n", GitCommit, BuildDate))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "record verbose mode (no extra output is produced)")
}

// Execute runs the root command, returning any error for main to report.
func Execute() error {
	return rootCmd.Execute()
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}
