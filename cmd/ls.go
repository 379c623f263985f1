package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cloak/internal/ui"
	"github.com/PolarWolf314/cloak/internal/workflows"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Lists every encrypted file in the repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := workflows.List(context.Background(), env)
		if err != nil {
			printFinal(ui.Error.Sprint("✗") + " " + err.Error())
			return reported(err)
		}
		for _, f := range result.Files {
			fmt.Println(f)
		}
		Logger.Infof("Found %d encrypted files under %s", len(result.Files), result.ProjectPath)
		return nil
	},
}
