// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/archive"
	"github.com/pdiddy/survey-engine/internal/survey"
	"github.com/pdiddy/survey-engine/internal/transcript"
	"github.com/pdiddy/survey-engine/pkg/types"
)

const defaultTopic = "Artificial Intelligence"

var surveyCmd = &cobra.Command{
	Use:   "survey [topic]",
	Short: "Run a literature survey and stream the agent conversation",
	Long: `Survey asks the search agent to find papers on the topic and the
summarizer agent to review them. Each agent message is printed as it arrives
as "<agent>:<text>". With no topic, "Artificial Intelligence" is surveyed.

Use --render to format messages for the terminal, --out to save a YAML
transcript, and --archive to record the run in a SQLite history.`,
	RunE: runSurvey,
}

func runSurvey(cmd *cobra.Command, args []string) error {
	cfg, err := surveyConfig()
	if err != nil {
		return err
	}

	topic := strings.TrimSpace(strings.Join(args, " "))
	if topic == "" {
		topic = defaultTopic
	}
	papers, _ := cmd.Flags().GetInt("papers")
	model, _ := cmd.Flags().GetString("model")
	if cmd.Flags().Changed("max-turns") {
		cfg.Team.MaxTurns, _ = cmd.Flags().GetInt("max-turns")
	}
	if cmd.Flags().Changed("no-early-stop") {
		noStop, _ := cmd.Flags().GetBool("no-early-stop")
		cfg.Team.StopOnReport = !noStop
	}
	if path, _ := cmd.Flags().GetString("archive"); path != "" {
		cfg.Archive.Path = path
	}

	req, err := survey.NormalizeRequest(types.SurveyRequest{Topic: topic, Papers: papers, Model: model})
	if err != nil {
		return err
	}

	render, _ := cmd.Flags().GetBool("render")
	printer, err := newTurnPrinter(os.Stdout, render)
	if err != nil {
		return err
	}

	strict, _ := cmd.Flags().GetBool("strict")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	turns := survey.Turns(ctx, req,
		survey.WithConfig(cfg),
		survey.WithLogger(logger),
		survey.WithStrictChecks(strict),
	)

	if cfg.Archive.Path != "" {
		store, err := archive.Open(cfg.Archive, archive.WithLogger(logger))
		if err != nil {
			return err
		}
		defer store.Close()
		turns = store.Record(ctx, req, turns)
	}

	outPath, _ := cmd.Flags().GetString("out")
	var tr *transcript.Transcript
	if outPath != "" {
		tr = transcript.New(req)
		turns = tr.Tee(turns)
	}

	fmt.Fprintf(os.Stderr, "Surveying %q for %d papers with %s\n", req.Topic, req.Papers, modelName(cfg, req))

	var runErr error
	for turn, err := range turns {
		if err != nil {
			runErr = err
			break
		}
		if err := printer.Print(turn); err != nil {
			return err
		}
	}

	if tr != nil {
		if err := tr.WriteFile(outPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Transcript written to %s\n", outPath)
	}
	if runErr != nil {
		return fmt.Errorf("survey failed: %w", runErr)
	}
	return nil
}

func modelName(cfg types.SurveyConfig, req types.SurveyRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return cfg.Team.Model.Model
}

func init() {
	surveyCmd.Flags().Int("papers", types.DefaultPapers, "number of papers in the report")
	surveyCmd.Flags().String("model", "", "model identifier (default from config)")
	surveyCmd.Flags().Int("max-turns", types.DefaultMaxTurns, "maximum agent turns")
	surveyCmd.Flags().Bool("no-early-stop", false, "keep taking turns after the report until the turn limit")
	surveyCmd.Flags().Bool("render", false, "render Markdown and style speaker labels for the terminal")
	surveyCmd.Flags().String("out", "", "write a YAML transcript to this file")
	surveyCmd.Flags().String("archive", "", "record the run in this SQLite archive")
	surveyCmd.Flags().Bool("strict", false, "warn when paper or bullet counts differ from --papers")

	rootCmd.AddCommand(surveyCmd)
}
