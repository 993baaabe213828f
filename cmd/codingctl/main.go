// codingctl is a command-line client for the case billing pipeline: it
// reads a case file from disk, runs it through the fixed six-stage
// topology, and prints the assembled CaseOutput as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thomasfortoul/oxkair-workflow/pkg/logging"
	"github.com/thomasfortoul/oxkair-workflow/pkg/version"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agents"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// caseFile is the on-disk shape codingctl reads: clinical notes plus
// identifying metadata, the same payload workflow-service accepts over
// HTTP.
type caseFile struct {
	CaseID          string                 `json:"caseId"`
	PatientID       string                 `json:"patientId"`
	ProviderID      string                 `json:"providerId"`
	PrimaryNoteText string                 `json:"primaryNoteText"`
	AdditionalNotes []state.AdditionalNote `json:"additionalNotes"`
	MACJurisdiction string                 `json:"macJurisdiction"`
}

func buildRegistry() *agent.Registry {
	reg := agent.NewRegistry()
	reg.RegisterSingle(agents.NewCPTAgent())
	reg.RegisterSingle(agents.NewICDAgent())
	reg.RegisterSingle(agents.NewCCIAgent())
	reg.RegisterSingle(agents.NewLCDAgent())
	reg.RegisterSingle(agents.NewModifierAgent())
	reg.RegisterSingle(agents.NewRVUAgent())
	return reg
}

func runProcess(path string, jurisdictionOverride string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading case file: %w", err)
	}

	var cf caseFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return fmt.Errorf("parsing case file: %w", err)
	}
	if jurisdictionOverride != "" {
		cf.MACJurisdiction = jurisdictionOverride
	}

	notes := state.CaseNotes{PrimaryNoteText: cf.PrimaryNoteText, AdditionalNotes: cf.AdditionalNotes}
	meta := state.CaseMeta{CaseID: cf.CaseID, PatientID: cf.PatientID, ProviderID: cf.ProviderID}

	logger := logging.New(cf.CaseID)
	defer logger.Close()

	result := workflow.ProcessCase(
		context.Background(),
		notes,
		meta,
		buildRegistry(),
		logger,
		nil,
		workflow.ProcessingOptions{MACJurisdiction: cf.MACJurisdiction},
		nil,
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func newProcessCmd() *cobra.Command {
	var jurisdiction string
	cmd := &cobra.Command{
		Use:   "process [case-file]",
		Short: "Run a case through the billing pipeline and print the assembled output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(args[0], jurisdiction)
		},
	}
	cmd.Flags().StringVar(&jurisdiction, "mac-jurisdiction", "", "override the case file's MAC jurisdiction")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:   "codingctl",
		Short: "CLI for the operative case billing pipeline",
	}
	root.AddCommand(newProcessCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
