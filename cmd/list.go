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

var listType string

var listCmd = &cobra.Command{
	Use:   "list <system_path>",
	Short: "List the ids of one declaration kind in a system",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listType, "type", "flows", "declaration kind to list: flows, models, tables, or compendiums")
	rootCmd.AddCommand(listCmd)
}

type listEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	sys, err := loader.Load(args[0])
	if err != nil {
		return err
	}

	var entries []listEntry
	switch listType {
	case "flows":
		for _, f := range sys.Flows {
			entries = append(entries, listEntry{ID: f.ID, Name: f.Name, Description: f.Description})
		}
	case "models":
		for _, m := range sys.Models {
			entries = append(entries, listEntry{ID: m.ID, Name: m.Name})
		}
	case "tables":
		for _, t := range sys.Tables {
			entries = append(entries, listEntry{ID: t.ID, Name: t.Name})
		}
	case "compendiums":
		for _, c := range sys.Compendiums {
			entries = append(entries, listEntry{ID: c.ID, Name: c.Name})
		}
	default:
		return fmt.Errorf("--type %q is not one of flows, models, tables, compendiums", listType)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.ID, e.Name)
	}
	return w.Flush()
}
