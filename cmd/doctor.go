package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cloak/internal/ui"
	"github.com/PolarWolf314/cloak/internal/workflows"
)

var doctorJSON bool

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output results as JSON")
}

// resetDoctorCommandState resets the doctor command's global state for testing.
func resetDoctorCommandState() {
	doctorJSON = false
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Checks tools, agent, identity and ignore rules",
	Long: `Runs health checks on the local setup and the repository.

Exits non-zero when any check reports an error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := workflows.Doctor(context.Background(), env)
		if err != nil {
			return err
		}

		if doctorJSON {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal results to JSON: %w", err)
			}
			fmt.Println(string(data))
		} else {
			printDoctorResult(result)
		}

		if result.Summary.Errors > 0 {
			return reported(fmt.Errorf("%d check(s) failed", result.Summary.Errors))
		}
		return nil
	},
}

func printDoctorResult(result *workflows.DoctorResult) {
	for _, check := range result.Checks {
		var mark string
		switch check.Status {
		case workflows.CheckPass:
			mark = ui.Success.Sprint("✓")
		case workflows.CheckWarning:
			mark = ui.Warning.Sprint("⚠")
		default:
			mark = ui.Error.Sprint("✗")
		}
		fmt.Printf("%s %s: %s\n", mark, check.Name, check.Message)
	}

	if len(result.Suggestions) > 0 {
		fmt.Println()
		for _, s := range result.Suggestions {
			fmt.Println(ui.Info.Sprint("→") + " " + s)
		}
	}

	s := result.Summary
	fmt.Printf("\n%d passed, %d warnings, %d errors\n", s.Passed, s.Warnings, s.Errors)
}
