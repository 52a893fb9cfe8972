// Package config holds the small set of compiler-wide switches the rest of
// the pipeline consults by value rather than by global state, grounded on
// the teacher's own CLI-flags-only configuration (cmd/dwscript/cmd): no
// external config-file library is introduced, since the teacher has none
// either — everything here is populated from cobra flags in cmd/p8c and
// threaded explicitly into the packages that need it.
package config

import "fmt"

// CPUTarget selects the 6502-family variant the codegen emits for (spec.md
// §6: "distinguishes these by querying the active compilation target").
type CPUTarget int

const (
	// CPU6502 is the baseline NMOS 6502 instruction set.
	CPU6502 CPUTarget = iota
	// CPU65C02 additionally permits the 65C02-only idioms (stz, bra).
	CPU65C02
)

func (t CPUTarget) String() string {
	switch t {
	case CPU6502:
		return "6502"
	case CPU65C02:
		return "65c02"
	default:
		return "unknown"
	}
}

// ParseCPUTarget maps a CLI flag value to a CPUTarget.
func ParseCPUTarget(s string) (CPUTarget, error) {
	switch s {
	case "6502":
		return CPU6502, nil
	case "65c02", "65C02":
		return CPU65C02, nil
	default:
		return CPU6502, fmt.Errorf("unknown cpu target %q (want 6502 or 65c02)", s)
	}
}

// HasStz reports whether the target supports the 65C02 `stz` instruction.
func (t CPUTarget) HasStz() bool { return t == CPU65C02 }

// HasBra reports whether the target supports the 65C02 `bra` instruction.
func (t CPUTarget) HasBra() bool { return t == CPU65C02 }

// OutputFormat selects what the driver writes to stdout/file.
type OutputFormat int

const (
	// OutputAssembly emits the final 6502/65C02 assembly listing (default).
	OutputAssembly OutputFormat = iota
	// OutputAST selects an AST dump (p8c compile --format ast); the compile
	// command reports this format as not produced.
	OutputAST
	// OutputIR selects a call-graph/statistics dump (p8c compile --format
	// ir); the compile command reports this format as not produced.
	OutputIR
)

// ParseOutputFormat maps a CLI flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "asm", "assembly":
		return OutputAssembly, nil
	case "ast":
		return OutputAST, nil
	case "ir":
		return OutputIR, nil
	default:
		return OutputAssembly, fmt.Errorf("unknown output format %q (want asm, ast, or ir)", s)
	}
}

// DefaultZeroPageBudget is the default --zp-budget value: zero-page bytes
// beyond the four fixed scratch locations and the sixteen virtual registers
// (spec.md §6's zero-page convention reserves those unconditionally). No
// zero-page allocator exists, so the value is only recorded in Options.
const DefaultZeroPageBudget = 128

// Options is the full set of compiler-wide switches, populated once from
// cobra flags in cmd/p8c and passed by value into the pipeline/codegen.
type Options struct {
	// CPU is the target instruction set (spec.md §6).
	CPU CPUTarget

	// ZeroPageBudget is the number of zero-page bytes beyond the fixed
	// scratch/register reservation given on the command line. No component
	// reads it; ZPWish declarations are not placed by any allocator.
	ZeroPageBudget int

	// Output selects what the driver prints (assembly, AST dump, or IR/
	// statistics dump).
	Output OutputFormat

	// Verbose records the --verbose flag. No component reads it, so it adds
	// no output.
	Verbose bool
}

// Default returns the Options a bare `p8c compile` run uses.
func Default() Options {
	return Options{
		CPU:            CPU6502,
		ZeroPageBudget: DefaultZeroPageBudget,
		Output:         OutputAssembly,
	}
}
