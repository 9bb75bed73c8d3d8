package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/alias"
	"github.com/mattsonlyattack/cons/internal/app"
	"github.com/mattsonlyattack/cons/internal/store"
	"github.com/mattsonlyattack/cons/internal/tagnorm"
)

var tagAliasCmd = &cobra.Command{
	Use:   "tag-alias [alias] [canonical-tag]",
	Short: "Create a user-sourced alias pointing at a canonical tag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		aliasName, canonicalName := args[0], args[1]

		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		tag, err := svc.Store.GetOrCreateTag(tagnorm.Normalize(canonicalName))
		if err != nil {
			return err
		}

		resolver := alias.New(svc.Store)
		if err := resolver.CreateAlias(aliasName, tag.ID, store.SourceUser, 1.0, nil); err != nil {
			return err
		}

		fmt.Printf("%s -> %s\n", aliasName, canonicalName)
		return nil
	},
}

var tagAliasRemoveCmd = &cobra.Command{
	Use:   "tag-alias-remove [alias]",
	Short: "Remove an alias",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		resolver := alias.New(svc.Store)
		if err := resolver.RemoveAlias(args[0]); err != nil {
			return err
		}
		fmt.Printf("removed alias %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tagAliasCmd)
	rootCmd.AddCommand(tagAliasRemoveCmd)
}
