package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wyrdbound/grimoire/internal/loader"
)

var browseCmd = &cobra.Command{
	Use:   "browse <system_path>",
	Short: "Enumerate a system's compendiums and tables",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

type compendiumSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Model   string `json:"model"`
	Entries int    `json:"entries"`
}

type tableSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Roll    string `json:"roll,omitempty"`
	Entries int    `json:"entries"`
}

func runBrowse(cmd *cobra.Command, args []string) error {
	sys, err := loader.Load(args[0])
	if err != nil {
		return err
	}

	compendiumIDs := make([]string, 0, len(sys.Compendiums))
	for id := range sys.Compendiums {
		compendiumIDs = append(compendiumIDs, id)
	}
	sort.Strings(compendiumIDs)

	tableIDs := make([]string, 0, len(sys.Tables))
	for id := range sys.Tables {
		tableIDs = append(tableIDs, id)
	}
	sort.Strings(tableIDs)

	if outputFormat == "json" {
		compendiums := make([]compendiumSummary, 0, len(compendiumIDs))
		for _, id := range compendiumIDs {
			c := sys.Compendiums[id]
			compendiums = append(compendiums, compendiumSummary{ID: c.ID, Name: c.Name, Model: c.Model, Entries: len(c.Entries)})
		}
		tables := make([]tableSummary, 0, len(tableIDs))
		for _, id := range tableIDs {
			t := sys.Tables[id]
			tables = append(tables, tableSummary{ID: t.ID, Name: t.Name, Roll: t.Roll, Entries: len(t.Entries)})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Compendiums []compendiumSummary `json:"compendiums"`
			Tables      []tableSummary      `json:"tables"`
		}{compendiums, tables})
	}

	fmt.Println("Compendiums:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tMODEL\tENTRIES")
	for _, id := range compendiumIDs {
		c := sys.Compendiums[id]
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d\n", c.ID, c.Name, c.Model, len(c.Entries))
	}
	w.Flush()

	fmt.Println("\nTables:")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tROLL\tENTRIES")
	for _, id := range tableIDs {
		t := sys.Tables[id]
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d\n", t.ID, t.Name, t.Roll, len(t.Entries))
	}
	return w.Flush()
}
