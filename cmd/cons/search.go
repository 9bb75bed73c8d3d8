package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/app"
	"github.com/mattsonlyattack/cons/internal/search"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes by full text and tag-graph activation",
	Long:  `Runs the dual-channel search: full-text matching fused with spreading activation over the tag graph, ranked by a weighted combination of both channels.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		results, meta, err := svc.Engine.Search(search.Options{
			Query: query,
			Limit: searchLimit,
			Weights: search.Weights{
				FTS:   cfg.Search.FTSWeight,
				Graph: cfg.Search.GraphWeight,
			},
		})
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No matching notes.")
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
			channels := "fts"
			if r.BothChannels {
				channels = "fts+graph"
			} else if r.GraphScore > 0 {
				channels = "graph"
			}
			fmt.Printf("#%d  score=%.3f (%s)  %s\n", note.ID, r.FusedScore, channels, preview)
		}

		if meta.GraphSkipped {
			fmt.Println("(graph channel skipped: query did not resolve to any tag)")
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}
