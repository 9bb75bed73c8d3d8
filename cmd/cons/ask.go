package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/app"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a natural-language question answered from retrieved notes",
	Long:  `Retrieves the top matching notes via search and asks the answerer collaborator to produce a cited answer grounded only in that retrieved set.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		result, err := svc.Asker.Ask(context.Background(), svc.Store.GetNote, question)
		if err != nil {
			return err
		}

		if result.NoRelevantNote {
			fmt.Println("No relevant note found.")
			return nil
		}

		fmt.Println(result.Answer)
		for _, c := range result.Citations {
			fmt.Printf("  [#%d] %q\n", c.NoteID, c.Quote)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
