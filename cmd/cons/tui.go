package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/app"
	"github.com/mattsonlyattack/cons/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse notes interactively",
	Long:  `Opens a terminal browser over the note list, with / to run a dual-channel search and navigate the ranked results.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := app.Open(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		p := tea.NewProgram(tui.New(svc), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
