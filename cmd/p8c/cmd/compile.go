package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p8c/p8c/internal/codegen"
	"github.com/p8c/p8c/internal/config"
	"github.com/p8c/p8c/internal/diag"
	"github.com/p8c/p8c/internal/parser"
	"github.com/p8c/p8c/internal/semantic"
)

var (
	compileOutputFile string
	compileCPU        string
	compileZPBudget   int
	compileOutputKind string
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a P8 source file to assembly",
	Long: `compile reads one P8 source file, runs it through the lex/parse,
resolve/typecheck/reorder/fold/dead-code/call-graph passes, and the codegen
driver, then writes the resulting listing to stdout or --output.`,
	Args: cobra.ExactArgs(1),
	RunE: compileFile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&compileOutputFile, "output", "o", "", "output file (default: stdout)")
	compileCmd.Flags().StringVar(&compileCPU, "cpu", "6502", "target CPU: 6502 or 65c02")
	compileCmd.Flags().IntVar(&compileZPBudget, "zp-budget", config.DefaultZeroPageBudget, "zero-page bytes available beyond fixed scratch/registers")
	compileCmd.Flags().StringVar(&compileOutputKind, "format", "asm", "output format: asm, ast, or ir")
}

func compileFile(_ *cobra.Command, args []string) error {
	filename := args[0]
	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}

	program, parseErrs := parser.Parse(filename, string(src))
	if len(parseErrs) > 0 {
		for _, e := range parseErrs {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("%d parse error(s) in %s", len(parseErrs), filename)
	}

	ctx := semantic.NewContext(program)
	passes := semantic.NewPassManager(
		semantic.NewResolvePass(),
		semantic.NewTypeCheckPass(),
		semantic.NewReorderPass(),
		semantic.NewConstFoldPass(),
		semantic.NewDeadCodePass(),
		semantic.NewBuildCallGraphPass(),
		semantic.NewProgramChecksPass(),
	)
	if err := passes.RunAll(program, ctx); err != nil {
		return fmt.Errorf("semantic pipeline: %w", err)
	}
	if ctx.Diags.HasErrors() {
		ctx.Diags.SortByPosition()
		reportDiagnostics(ctx.Diags.All(), string(src))
		if ctx.Diags.HasFatal() {
			return fmt.Errorf("compilation of %s failed", filename)
		}
	}

	cpu, err := config.ParseCPUTarget(compileCPU)
	if err != nil {
		return err
	}
	outFmt, err := config.ParseOutputFormat(compileOutputKind)
	if err != nil {
		return err
	}
	cfg := config.Options{
		CPU:            cpu,
		ZeroPageBudget: compileZPBudget,
		Output:         outFmt,
		Verbose:        verbose,
	}

	if cfg.Output != config.OutputAssembly {
		return fmt.Errorf("output format %q is not produced by this codegen pass yet", compileOutputKind)
	}

	asm, diags := codegen.EmitProgram(program, cfg)
	if diags.HasErrors() {
		diags.SortByPosition()
		reportDiagnostics(diags.All(), string(src))
		if diags.HasFatal() {
			return fmt.Errorf("codegen of %s failed", filename)
		}
	}

	return writeOutput(asm)
}

func reportDiagnostics(diags []*diag.Diagnostic, source string) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.Format(source))
	}
}

func writeOutput(asm string) error {
	if compileOutputFile == "" {
		_, err := fmt.Fprint(os.Stdout, asm)
		return err
	}
	if !strings.HasSuffix(asm, "\n") {
		asm += "\n"
	}
	return os.WriteFile(compileOutputFile, []byte(asm), 0644)
}
