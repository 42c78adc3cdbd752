package tools

import (
	"github.com/spf13/cobra"
)

// ToolsCmd groups miscellaneous tools
var ToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "x86mini miscellaneous tools",
}
