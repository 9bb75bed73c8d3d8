package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/activation"
	"github.com/mattsonlyattack/cons/internal/app"
)

var (
	graphSearchNoteID int64
	graphSearchLimit  int
)

var graphSearchCmd = &cobra.Command{
	Use:   "graph-search",
	Short: "Find notes related to a given note by spreading activation alone",
	Long:  `Starts spreading activation from the tags attached to --note and ranks other notes by the graph channel only, bypassing full-text matching.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if graphSearchNoteID == 0 {
			return fmt.Errorf("--note is required")
		}

		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		cfgActivation := activation.Config{
			Decay:     cfg.Activation.Decay,
			Threshold: cfg.Activation.Threshold,
			MaxHops:   cfg.Activation.MaxHops,
		}

		results, err := svc.Engine.GraphSearchFromNote(graphSearchNoteID, graphSearchLimit, cfgActivation)
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No related notes found.")
			return nil
		}

		for _, r := range results {
			note, err := svc.Store.GetNote(r.NoteID)
			if err != nil {
				continue
			}
			preview := note.Content
			if len(preview) > 80 {
				preview = preview[:80] + "..."
			}
			fmt.Printf("#%d  graph_score=%.3f  %s\n", note.ID, r.GraphScore, preview)
		}
		return nil
	},
}

func init() {
	graphSearchCmd.Flags().Int64Var(&graphSearchNoteID, "note", 0, "note id to search from (required)")
	graphSearchCmd.Flags().IntVar(&graphSearchLimit, "limit", 10, "maximum number of results")
	rootCmd.AddCommand(graphSearchCmd)
}
