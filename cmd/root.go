package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Manu343726/x86mini/cmd/cpu"
	"github.com/Manu343726/x86mini/cmd/tools"
	"github.com/Manu343726/x86mini/pkg/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tebeka/atexit"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "x86mini",
	Short: "A tiny interpreter for a subset of 32 bit x86",
	Long: `x86mini runs pre-tokenized programs written with a handful of x86 instructions
(mov, add, sub, cmp, jmp, je) over eight 32 bit registers, four flags and a
small byte addressable memory.

This CLI is the entry point to run, trace and debug those programs`,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// The process exits through atexit so the log file is always closed.
func Execute() {
	err := RootCmd.Execute()
	if err == nil {
		atexit.Exit(cpu.ExitOK)
	}

	fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)

	var exitErr *cpu.ExitError
	if errors.As(err, &exitErr) {
		atexit.Exit(exitErr.Code)
	}
	atexit.Exit(cpu.ExitUsage)
}

func init() {
	RootCmd.AddCommand(tools.ToolsCmd, cpu.CpuCmd)
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.x86mini.yaml)")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")
	flags.String("log-file", "", "Also write logs to this file")
	flags.String("log-format", log.FormatText, "Log file format: text, json")
	flags.Bool("no-color", false, "Disable colored output")

	cobra.CheckErr(viper.BindPFlag("log.level", flags.Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log.file", flags.Lookup("log-file")))
	cobra.CheckErr(viper.BindPFlag("log.format", flags.Lookup("log-format")))
	cobra.CheckErr(viper.BindPFlag("no-color", flags.Lookup("no-color")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".x86mini" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".x86mini")
	}

	viper.SetEnvPrefix("X86MINI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			cobra.CheckErr(fmt.Errorf("reading config file: %w", err))
		}
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	if viper.GetBool("no-color") {
		color.NoColor = true
	}

	logger, err := log.New(log.Config{
		Level:  viper.GetString("log.level"),
		File:   viper.GetString("log.file"),
		Format: viper.GetString("log.format"),
	})
	if err != nil {
		return err
	}

	atexit.Register(func() {
		if err := logger.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "closing log file:", err)
		}
	})

	slog.SetDefault(logger.Logger)

	if used := viper.ConfigFileUsed(); used != "" {
		slog.Debug("using config file", "path", used)
	}

	return nil
}
