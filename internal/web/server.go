// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package web serves the survey form and streams survey runs to the browser
// as Server-Sent Events.
package web

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"iter"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/pdiddy/survey-engine/internal/archive"
	"github.com/pdiddy/survey-engine/internal/survey"
	"github.com/pdiddy/survey-engine/pkg/types"
)

// MaxFormPapers is the largest paper count the form accepts. The survey
// itself has no upper bound.
const MaxFormPapers = 10

// FailureNotice is the only failure detail shown to the browser. The cause
// is logged on the server.
const FailureNotice = "The survey could not be completed. This is usually a model " +
	"provider problem such as a missing or revoked API key. Please try again later."

// RunFunc starts a survey run.
type RunFunc func(ctx context.Context, req types.SurveyRequest) iter.Seq2[types.Turn, error]

// Server is the web form host.
type Server struct {
	cfg     types.SurveyConfig
	logger  *zap.Logger
	run     RunFunc
	archive *archive.Store
	md      goldmark.Markdown
	engine  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRunner replaces the survey runner.
func WithRunner(run RunFunc) Option {
	return func(s *Server) { s.run = run }
}

// WithArchive records every run in store.
func WithArchive(store *archive.Store) Option {
	return func(s *Server) { s.archive = store }
}

// New builds the server and its routes.
func New(cfg types.SurveyConfig, opts ...Option) *Server {
	s := &Server{cfg: cfg, logger: zap.NewNop(), md: goldmark.New()}
	for _, opt := range opts {
		opt(s)
	}
	if s.run == nil {
		s.run = func(ctx context.Context, req types.SurveyRequest) iter.Seq2[types.Turn, error] {
			return survey.Turns(ctx, req, survey.WithConfig(s.cfg), survey.WithLogger(s.logger))
		}
	}
	s.engine = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on cfg.Serve.Addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.Serve.Addr
	if addr == "" {
		addr = types.DefaultServeAddr
	}
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("web form listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(s.cfg.Serve.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.Serve.AllowOrigins
	}
	r.Use(cors.New(corsCfg))

	r.SetHTMLTemplate(template.Must(template.New("index").Parse(indexHTML)))

	r.GET("/", s.handleIndex)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/api/survey", s.handleSurvey)
	return r
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index", gin.H{
		"DefaultPapers": types.DefaultPapers,
		"MaxPapers":     MaxFormPapers,
	})
}

type surveyQuery struct {
	Topic  string `form:"topic"`
	Papers int    `form:"papers" binding:"omitempty,min=1,max=10"`
}

// turnEvent is the payload of a "turn" event.
type turnEvent struct {
	Source  string `json:"source"`
	Content string `json:"content"`
	HTML    string `json:"html"`
}

func (s *Server) handleSurvey(c *gin.Context) {
	var q surveyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := survey.NormalizeRequest(types.SurveyRequest{Topic: q.Topic, Papers: q.Papers})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	turns := s.run(ctx, req)
	if s.archive != nil {
		turns = s.archive.Record(ctx, req, turns)
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	n := 0
	for turn, err := range turns {
		if err != nil {
			s.logger.Error("survey run failed",
				zap.String("topic", req.Topic),
				zap.Int("turns", n),
				zap.Error(err),
			)
			c.SSEvent("error", gin.H{"message": FailureNotice})
			c.Writer.Flush()
			return
		}
		n++
		c.SSEvent("turn", turnEvent{Source: turn.Source, Content: turn.Content, HTML: s.render(turn.Content)})
		c.Writer.Flush()
	}
	c.SSEvent("done", gin.H{"turns": n})
	c.Writer.Flush()
}

// render converts Markdown to HTML. Raw HTML in the input is not passed through.
func (s *Server) render(markdown string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return template.HTMLEscapeString(markdown)
	}
	return buf.String()
}
