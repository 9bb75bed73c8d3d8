package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/app"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List all canonical tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		tags, err := svc.Store.ListTags()
		if err != nil {
			return err
		}
		if len(tags) == 0 {
			fmt.Println("No tags yet.")
			return nil
		}

		for _, t := range tags {
			aliases, err := svc.Store.AliasesForTag(t.ID)
			if err != nil {
				continue
			}
			if len(aliases) == 0 {
				fmt.Printf("%s  (centrality=%d)\n", t.Name, t.DegreeCentrality)
				continue
			}
			names := make([]string, len(aliases))
			for i, a := range aliases {
				names[i] = a.Alias
			}
			fmt.Printf("%s  (centrality=%d, aliases=%v)\n", t.Name, t.DegreeCentrality, names)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
