package tools

import (
	"fmt"
	"os"
	"strings"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/registers"
	"github.com/Manu343726/x86mini/pkg/utils"
	"github.com/spf13/cobra"
)

var supportedModules = map[string]func() string{
	"cpu.instructions": instructions.Instructions.DocString,
	"cpu.registers":    registers.GeneralPurpose.DocString,
}

var docsCmd = &cobra.Command{
	Use:   "docs module",
	Short: "Show x86mini documentation",
	Long: `Dumps the documentation of the specified x86mini module.
By default the tool dumps the documentation to stdout, but it can be redirected to a file using the --output flag.

Supported modules:
` + strings.Join(utils.Map(utils.SortedKeys(supportedModules), func(module string) string { return "  " + module }), "\n"),
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: utils.SortedKeys(supportedModules),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, _ := cmd.Flags().GetString("output")
		return writeDocs(args[0], outputFile, cmd)
	},
}

func init() {
	ToolsCmd.AddCommand(docsCmd)
	docsCmd.Flags().StringP("output", "o", "", "Output file. If not specified, the documentation is dumped to stdout.")
}

func writeDocs(module string, outputFile string, cmd *cobra.Command) error {
	doc, supported := supportedModules[module]
	if !supported {
		return fmt.Errorf("unknown module '%v'", module)
	}

	if outputFile == "" {
		fmt.Fprintln(cmd.OutOrStdout(), doc())
		return nil
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating documentation file: %w", err)
	}
	defer file.Close()

	_, err = fmt.Fprintln(file, doc())
	return err
}
