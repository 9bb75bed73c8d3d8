package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/app"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently captured notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		notes, err := svc.Store.ListNotes(listLimit)
		if err != nil {
			return err
		}
		if len(notes) == 0 {
			fmt.Println("No notes yet.")
			return nil
		}

		for _, n := range notes {
			preview := n.Content
			if len(preview) > 80 {
				preview = preview[:80] + "..."
			}
			fmt.Printf("#%d  %s  %s\n", n.ID, n.CreatedAt.Format("2006-01-02 15:04"), preview)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum number of notes to list")
	rootCmd.AddCommand(listCmd)
}
