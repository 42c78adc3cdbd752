package cpu

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/x86mini/pkg/hw/cpu/loader"
	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/instructions"
	"github.com/spf13/cobra"
)

// Register dump formats
const (
	dumpPlain = "plain"
	dumpTable = "table"
)

var (
	execVerbose  bool
	execMaxSteps int
	execTrace    bool
	execFormat   string
)

var execCmd = &cobra.Command{
	Use:   "exec [file]",
	Short: "Execute an x86mini program",
	Long: `Loads and executes an x86mini program file.

The accumulator (r0) is printed to stdout when the program ends. With --verbose
an execution summary and a register dump are printed instead.

Exit codes:
  0  the program ran past its last instruction
  1  usage error
  2  the program could not be loaded
  3  the program stopped on an unsupported instruction or a runtime error
  4  the step limit was reached

Example:
  x86mini cpu exec
  x86mini cpu exec --trace countdown.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExec,
}

func init() {
	CpuCmd.AddCommand(execCmd)
	execCmd.Flags().BoolVarP(&execVerbose, "verbose", "v", false, "Print execution summary and registers")
	execCmd.Flags().IntVarP(&execMaxSteps, "max-steps", "n", 0, "Maximum number of steps to execute (0 = unlimited)")
	execCmd.Flags().BoolVarP(&execTrace, "trace", "t", false, "Trace each instruction execution")
	execCmd.Flags().StringVar(&execFormat, "format", dumpPlain, "Register dump format: plain, table")
}

type execOptions struct {
	MaxSteps int
	Trace    bool
	Verbose  bool
	Format   string
	Style    interpreter.FormatStyle
}

func runExec(cmd *cobra.Command, args []string) error {
	if execFormat != dumpPlain && execFormat != dumpTable {
		return fmt.Errorf("unknown --format '%v', expected %v or %v", execFormat, dumpPlain, dumpTable)
	}

	cmd.SilenceUsage = true

	program, err := loadProgram(args)
	if err != nil {
		return err
	}

	return execute(program, execOptions{
		MaxSteps: execMaxSteps,
		Trace:    execTrace,
		Verbose:  execVerbose,
		Format:   execFormat,
		Style:    outputStyle(),
	}, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// Runs a loaded program, writing results to stdout and traces to stderr
func execute(program *loader.Program, opts execOptions, stdout, stderr io.Writer) error {
	runner, err := program.NewRunner()
	if err != nil {
		return &ExitError{Code: ExitLoad, Err: err}
	}
	runner.SetLogger(slog.Default().With("program", program.Name))

	formatter := interpreter.NewTraceFormatter(interpreter.OutputConfig{Style: opts.Style, Writer: stderr})

	var result *interpreter.ExecutionResult
	if opts.Trace {
		result = runner.RunWithTrace(opts.MaxSteps, func(step int, ip uint32, instr *instructions.Instruction) bool {
			fmt.Fprintln(formatter.Writer(), formatter.FormatStep(step, ip, instr, runner.State()))
			return true
		})
	} else {
		result = runner.Run(opts.MaxSteps)
	}

	fmt.Fprint(stdout, formatter.FormatSummary(runner.Summary(), opts.Verbose))

	if opts.Verbose {
		fmt.Fprintln(stdout)
		if opts.Format == dumpTable {
			fmt.Fprintln(stdout, formatter.FormatStateTable(runner.State()))
		} else {
			fmt.Fprint(stdout, formatter.FormatRegisters(runner.State()))
		}
	}

	switch result.StopReason {
	case interpreter.StopTermination:
		return nil
	case interpreter.StopMaxSteps:
		return exitError(ExitMaxSteps, "step limit of %v reached at %v", opts.MaxSteps, interpreter.FormatIP(runner.IP()))
	case interpreter.StopError:
		return &ExitError{Code: ExitRuntime, Err: result.Error}
	default:
		return exitError(ExitRuntime, "execution stopped: %v", result.StopReason)
	}
}
