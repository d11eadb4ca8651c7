// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/archive"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived survey runs",
	Long: `History reads the SQLite archive written by survey --archive and
serve --archive. Use list to see past runs and show to print one.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	topic, _ := cmd.Flags().GetString("topic")
	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.List(context.Background(), archive.ListOptions{Topic: topic, Limit: limit})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if runs == nil {
			runs = []archive.Run{}
		}
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-6s  %-5s  %s\n", "ID", "Started", "Papers", "Turns", "Topic")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range runs {
		topic := r.Request.Topic
		if r.Error != "" {
			topic += " (failed)"
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-6d  %-5d  %s\n",
			r.ID, r.Started.Local().Format("2006-01-02 15:04:05"), r.Request.Papers, r.Turns, topic)
	}
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print an archived run",
	Long: `Show prints the turns of an archived run. By default the run is printed
as a YAML transcript; --render prints the conversation for the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	tr, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	if render, _ := cmd.Flags().GetBool("render"); render {
		printer, err := newTurnPrinter(os.Stdout, true)
		if err != nil {
			return err
		}
		for _, turn := range tr.Turns {
			if err := printer.Print(turn); err != nil {
				return err
			}
		}
		return nil
	}
	return tr.Write(os.Stdout)
}

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	cfg, err := surveyConfig()
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("archive"); path != "" {
		cfg.Archive.Path = path
	}
	if cfg.Archive.Path == "" {
		return nil, errors.New("no archive configured: pass --archive or set archive.path")
	}
	return archive.Open(types.ArchiveConfig{Path: cfg.Archive.Path})
}

func init() {
	historyCmd.PersistentFlags().String("archive", "", "SQLite archive file (default from config)")

	historyListCmd.Flags().String("topic", "", "only runs whose topic contains this text")
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyListCmd.Flags().Bool("json", false, "output runs as JSON")

	historyShowCmd.Flags().Bool("render", false, "render the conversation for the terminal")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
