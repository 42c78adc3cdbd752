package cpu

import (
	"fmt"
	"log/slog"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/x86mini/pkg/hw/cpu/loader"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Process exit codes
const (
	ExitOK = iota
	ExitUsage
	ExitLoad
	ExitRuntime
	ExitMaxSteps
)

// ExitError carries the process exit code of a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// CpuCmd groups the commands that run programs
var CpuCmd = &cobra.Command{
	Use:   "cpu",
	Short: "Run and debug x86mini programs",
	Long: `Run and debug x86mini programs.

Programs are YAML files listing the instructions and the initial machine state.
When no file is given the built-in demo program is used.`,
}

func init() {
	flags := CpuCmd.PersistentFlags()
	flags.Uint32P("memory", "m", 0, "Memory size in bytes (0 = program file setting, 1024 if unset)")
	flags.Bool("strict", false, "Reject programs with malformed operands or unsupported instructions")

	cobra.CheckErr(viper.BindPFlag("memory", flags.Lookup("memory")))
	cobra.CheckErr(viper.BindPFlag("strict", flags.Lookup("strict")))
}

// Loads the program given in the command arguments, or the demo program
func loadProgram(args []string) (*loader.Program, error) {
	opts := loader.Options{
		Strict:     viper.GetBool("strict"),
		MemorySize: viper.GetUint32("memory"),
		Logger:     slog.Default(),
	}

	if len(args) == 0 {
		slog.Info("no program file given, running the demo program")
		return loader.Demo(opts), nil
	}

	program, err := loader.Load(args[0], opts)
	if err != nil {
		return nil, exitError(ExitLoad, "loading program: %w", err)
	}

	slog.Info("program loaded",
		"name", program.Name,
		"instructions", len(program.Instructions),
		"memory", program.MemorySize)

	return program, nil
}

func outputStyle() interpreter.FormatStyle {
	if color.NoColor {
		return interpreter.StylePlain
	}
	return interpreter.StyleColored
}
