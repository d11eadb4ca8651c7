package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pdiddy/survey-engine/internal/archive"
	"github.com/pdiddy/survey-engine/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the survey web form",
	Long: `Serve starts a web form where a topic and a paper count (1-10) are
entered and the agent conversation streams into the page as it happens.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := surveyConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Serve.Addr = addr
	}
	if path, _ := cmd.Flags().GetString("archive"); path != "" {
		cfg.Archive.Path = path
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := []web.Option{web.WithLogger(logger)}
	if cfg.Archive.Path != "" {
		store, err := archive.Open(cfg.Archive, archive.WithLogger(logger))
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, web.WithArchive(store))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return web.New(cfg, opts...).ListenAndServe(ctx)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("archive", "", "record runs in this SQLite archive")

	rootCmd.AddCommand(serveCmd)
}
