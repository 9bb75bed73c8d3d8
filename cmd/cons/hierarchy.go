package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/app"
)

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy",
	Short: "Manage tag hierarchy edges",
}

var hierarchyPopulateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Suggest and insert generic/partitive hierarchy edges over tagged tags",
	Long:  `Asks the hierarchy collaborator to suggest relationships among every tag with at least one assignment, then inserts every suggestion at or above the confidence floor in a single all-or-nothing transaction.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		n, err := svc.Orch.PopulateHierarchy(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("inserted %d hierarchy edges\n", n)
		return nil
	},
}

var hierarchyShowCmd = &cobra.Command{
	Use:   "show [tag]",
	Short: "Show the hierarchy edges incident on a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		tag, err := svc.Store.FindTagByName(args[0])
		if err != nil {
			return err
		}

		edges, err := svc.Graph.Incident(tag.ID)
		if err != nil {
			return err
		}
		if len(edges) == 0 {
			fmt.Printf("%s has no hierarchy edges.\n", args[0])
			return nil
		}

		for _, e := range edges {
			src, err := svc.Store.GetTag(e.SourceTagID)
			if err != nil {
				continue
			}
			dst, err := svc.Store.GetTag(e.TargetTagID)
			if err != nil {
				continue
			}
			kind := string(e.HierarchyType)
			if kind == "" {
				kind = "generic"
			}
			fmt.Printf("%s -> %s  (%s, confidence=%.2f)\n", src.Name, dst.Name, kind, e.Confidence)
		}
		return nil
	},
}

func init() {
	hierarchyCmd.AddCommand(hierarchyPopulateCmd)
	hierarchyCmd.AddCommand(hierarchyShowCmd)
	rootCmd.AddCommand(hierarchyCmd)
}
