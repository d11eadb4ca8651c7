package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/httputil"
	"github.com/pdiddy/survey-engine/internal/search"
	"github.com/pdiddy/survey-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Query the scholarly index directly",
	Long: `Search runs the same search the search agent uses, without any model.
The query is sent verbatim. Results are printed as a table, or as the JSON
records the agent receives with --json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := surveyConfig()
	if err != nil {
		return err
	}
	if b, _ := cmd.Flags().GetString("backend"); b != "" {
		cfg.Search.Backend = types.SearchBackend(b)
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")

	searcher, err := search.New(cfg.Search, httputil.NewClient(cfg.Search.HTTPConfig))
	if err != nil {
		return err
	}

	records, err := searcher.Search(context.Background(), strings.Join(args, " "), maxResults)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(records, os.Stdout)
	}
	search.FormatTable(records, os.Stdout)
	fmt.Fprintf(os.Stderr, "%d result(s) from %s\n", len(records), searcher.Name())
	return nil
}

func init() {
	searchCmd.Flags().Int("max-results", types.DefaultSearchResults, "maximum number of results to return")
	searchCmd.Flags().String("backend", "", "search backend: arxiv or semantic_scholar (default from config)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
