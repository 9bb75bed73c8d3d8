package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/app"
)

var addCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Capture a new note",
	Long:  `Captures free-text content as a note, then runs the enrichment pipeline (enhancement and auto-tagging) against it when Ollama is configured.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content := strings.Join(args, " ")

		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		note, err := svc.Orch.Capture(context.Background(), content)
		if err != nil {
			return err
		}

		fmt.Printf("Captured note #%d\n", note.ID)
		if note.ContentEnhanced != nil {
			fmt.Println("  enhanced: yes")
		}
		tags, err := svc.Store.TagsForNote(note.ID)
		if err == nil && len(tags) > 0 {
			names := make([]string, len(tags))
			for i, t := range tags {
				names[i] = t.TagName
			}
			fmt.Printf("  tags: %s\n", strings.Join(names, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
