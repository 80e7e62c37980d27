package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wyrdbound/grimoire/internal/loader"
)

var validateVerbose bool

var validateCmd = &cobra.Command{
	Use:   "validate <system_path>",
	Short: "Load and validate a system, reporting every problem found",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateVerbose, "verbose", false, "print the id of every loaded declaration")
	rootCmd.AddCommand(validateCmd)
}

// runValidate returns a non-nil error on any loader/validation failure,
// which main.go turns into exit code 1; success prints a summary and
// returns nil (exit 0), per spec.md §6.
func runValidate(cmd *cobra.Command, args []string) error {
	systemPath := args[0]

	if validateVerbose {
		fmt.Printf("loading system from %s\n", systemPath)
	}

	sys, err := loader.Load(systemPath)
	if err != nil {
		return err
	}

	if validateVerbose {
		for id := range sys.Sources {
			fmt.Printf("  source: %s\n", id)
		}
		for id := range sys.Models {
			fmt.Printf("  model: %s\n", id)
		}
		for id := range sys.Compendiums {
			fmt.Printf("  compendium: %s\n", id)
		}
		for id := range sys.Tables {
			fmt.Printf("  table: %s\n", id)
		}
		for id := range sys.Prompts {
			fmt.Printf("  prompt: %s\n", id)
		}
		for id := range sys.Flows {
			fmt.Printf("  flow: %s\n", id)
		}
	}

	fmt.Printf("System %q is valid: %d sources, %d models, %d compendiums, %d tables, %d prompts, %d flows.\n",
		sys.ID, len(sys.Sources), len(sys.Models), len(sys.Compendiums), len(sys.Tables), len(sys.Prompts), len(sys.Flows))
	return nil
}
