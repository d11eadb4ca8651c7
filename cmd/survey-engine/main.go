// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the survey-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/secrets"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// logger is built from --verbose before any command runs.
var logger = zap.NewNop()

// rootCmd is the base command for the survey-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "survey-engine",
	Short: "Two-agent literature surveys over arXiv",
	Long: `survey-engine runs a small literature survey: a search agent queries arXiv,
over-fetches five times the papers wanted and keeps the most relevant ones; a
summarizer agent turns them into a Markdown report. The conversation is
streamed as it happens, one "<agent>:<text>" line per message.

The model API key is read from .secrets/openrouter-api-key or the
OPENROUTER_API_KEY environment variable (a .env file is loaded first).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l

		if err := secrets.LoadDotEnv(); err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./survey-engine.yaml or ~/.config/survey-engine/survey-engine.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of API key files")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log diagnostics to stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("survey-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "survey-engine"))
		}
	}

	defaults := types.DefaultSurveyConfig()
	viper.SetDefault("team.model.base_url", defaults.Team.Model.BaseURL)
	viper.SetDefault("team.model.model", defaults.Team.Model.Model)
	viper.SetDefault("team.max_turns", defaults.Team.MaxTurns)
	viper.SetDefault("team.stop_on_report", defaults.Team.StopOnReport)
	viper.SetDefault("search.backend", string(defaults.Search.Backend))
	viper.SetDefault("search.max_results", defaults.Search.MaxResults)
	viper.SetDefault("search.timeout", defaults.Search.Timeout)
	viper.SetDefault("serve.addr", defaults.Serve.Addr)
	viper.SetDefault("archive.path", "")

	viper.SetEnvPrefix("SURVEY_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// surveyConfig merges the config file and environment over the defaults and
// wires the API key providers.
func surveyConfig() (types.SurveyConfig, error) {
	cfg := types.DefaultSurveyConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.Team.Model.APIKey = secrets.APIKey(loadedSecrets, secrets.OpenRouterKeyFile, types.DefaultAPIKeyEnv)
	if cfg.Search.SemanticScholarAPIKey == "" {
		cfg.Search.SemanticScholarAPIKey = loadedSecrets[secrets.SemanticScholarKeyFile]
	}
	return cfg, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
