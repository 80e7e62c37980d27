package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wyrdbound/grimoire/internal/definition"
	"github.com/wyrdbound/grimoire/internal/engine"
	"github.com/wyrdbound/grimoire/internal/loader"
	"github.com/wyrdbound/grimoire/internal/template"
)

var (
	inputJSON     string
	flowID        string
	outputFile    string
	noInteractive bool
)

var executeCmd = &cobra.Command{
	Use:   "execute <system_path>",
	Short: "Run a flow to completion, prompting interactively for paused steps",
	Args:  cobra.ExactArgs(1),
	RunE:  runExecute,
}

func init() {
	executeCmd.Flags().StringVar(&flowID, "flow", "", "id of the flow to run (required)")
	executeCmd.Flags().StringVar(&inputJSON, "input", "{}", "JSON object of flow inputs")
	executeCmd.Flags().StringVar(&outputFile, "output", "", "write the finished flow result as JSON to this file instead of stdout")
	executeCmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "fail on the first step that requires player input instead of prompting")
	_ = executeCmd.MarkFlagRequired("flow")
	rootCmd.AddCommand(executeCmd)
}

func runExecute(cmd *cobra.Command, args []string) error {
	systemPath := args[0]

	sys, err := loader.Load(systemPath)
	if err != nil {
		return err
	}
	if _, ok := sys.Flows[flowID]; !ok {
		return fmt.Errorf("flow %q not found in %s", flowID, systemPath)
	}

	var inputs map[string]any
	if err := json.Unmarshal([]byte(inputJSON), &inputs); err != nil {
		return fmt.Errorf("parsing --input JSON: %w", err)
	}

	eng := defaultEngine()
	ctx := engine.NewContext(sys.Metadata(), template.NewService(), defaultLogger())
	goCtx := cmd.Context()

	result, pending, err := eng.Execute(goCtx, flowID, ctx, sys, inputs)
	if err != nil {
		return err
	}

	if pending != nil && noInteractive {
		return fmt.Errorf("flow %q paused at step %q awaiting input, but --no-interactive was set", pending.FlowID, pending.StepID)
	}

	reader := bufio.NewReader(os.Stdin)
	for pending != nil {
		value, err := promptPending(reader, pending)
		if err != nil {
			return err
		}
		result, pending, err = eng.Resume(goCtx, pending, value, ctx, sys)
		if err != nil {
			return err
		}
		if pending != nil && noInteractive {
			return fmt.Errorf("flow %q paused at step %q awaiting input, but --no-interactive was set", pending.FlowID, pending.StepID)
		}
	}

	if outputFile != "" {
		return writeFlowResultFile(outputFile, result)
	}
	return printFlowResult(result)
}

func writeFlowResultFile(path string, result definition.FlowResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating --output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// promptPending renders a Pending's prompt/choices to stdout and reads
// the player's answer from reader, matching the shape the flow engine
// expects back from Resume for player_choice (a ChoiceOption.ID) and
// player_input (a raw string, numeric-coerced when InputType is int
// or float).
func promptPending(reader *bufio.Reader, pending *engine.Pending) (any, error) {
	if pending.Prompt != "" {
		fmt.Println(pending.Prompt)
	}
	if len(pending.Choices) > 0 {
		for i, c := range pending.Choices {
			fmt.Printf("  %d) %s\n", i+1, c.Label)
		}
	}
	fmt.Print("> ")

	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	line = strings.TrimSpace(line)

	if len(pending.Choices) > 0 {
		if idx, err := strconv.Atoi(line); err == nil && idx >= 1 && idx <= len(pending.Choices) {
			return pending.Choices[idx-1].ID, nil
		}
		for _, c := range pending.Choices {
			if c.ID == line {
				return c.ID, nil
			}
		}
		return nil, fmt.Errorf("%q is not one of the offered choices", line)
	}

	switch pending.InputType {
	case definition.AttrTypeInt:
		return strconv.Atoi(line)
	case definition.AttrTypeFloat:
		return strconv.ParseFloat(line, 64)
	case definition.AttrTypeBool:
		return strconv.ParseBool(line)
	default:
		return line, nil
	}
}

func printFlowResult(result definition.FlowResult) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !result.Success {
		fmt.Printf("flow %q failed: %s\n", result.FlowID, result.Error)
		return nil
	}
	fmt.Printf("flow %q completed\n", result.FlowID)
	if len(result.Outputs) > 0 {
		fmt.Println("\nOutputs:")
		keys := sortedKeys(result.Outputs)
		for _, k := range keys {
			fmt.Printf("  %s: %v\n", k, result.Outputs[k])
		}
	}
	return nil
}
