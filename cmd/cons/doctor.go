package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mattsonlyattack/cons/internal/dependencies"
	"github.com/mattsonlyattack/cons/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run a comprehensive system check",
	Long:  `Checks the configuration, the note store, and Ollama reachability for the models the enrichment pipeline depends on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runDoctor()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor() {
	fmt.Println("cons System Check")
	fmt.Println("=================")
	fmt.Println()

	allOK := true
	hasWarnings := false

	fmt.Print("Database... ")
	if _, err := os.Stat(cfg.Database.Path); os.IsNotExist(err) {
		fmt.Println("NOT INITIALIZED (will be created on first use)")
	} else {
		s, err := store.Open(cfg.Database.Path)
		if err != nil {
			fmt.Printf("ERROR: %v\n", err)
			allOK = false
		} else {
			stats, err := s.GetStats()
			if err != nil {
				fmt.Printf("ERROR: %v\n", err)
				allOK = false
			} else {
				fmt.Printf("OK (%d notes, %d tags, %d edges, schema v%d)\n",
					stats.NoteCount, stats.TagCount, stats.EdgeCount, stats.SchemaVersion)
				if stats.FTSRowCount != stats.NoteCount {
					fmt.Printf("  WARNING: full-text index has %d rows for %d notes\n", stats.FTSRowCount, stats.NoteCount)
					allOK = false
				}
			}
			s.Close()
		}
	}
	fmt.Printf("  Path: %s\n", cfg.Database.Path)
	fmt.Println()

	depResult := dependencies.Check(cfg)
	fmt.Print(dependencies.FormatDoctorReport(depResult, cfg))
	if !depResult.EnrichmentAvailable() {
		hasWarnings = true
	}

	fmt.Println()
	switch {
	case allOK && !hasWarnings:
		fmt.Println("All systems operational.")
	case allOK && hasWarnings:
		fmt.Println("Core systems operational; enrichment features are degraded or unavailable.")
		fmt.Println("Notes will still be captured, but tagging, enhancement, hierarchy, and ask will be skipped.")
	default:
		fmt.Println("Some issues detected. Review the errors above.")
	}
}
