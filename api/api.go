package api

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/TFMV/csvdiff/logger"
	"github.com/TFMV/csvdiff/metrics"
	"github.com/TFMV/csvdiff/pkg/core"
	"github.com/TFMV/csvdiff/pkg/diff"
	"github.com/TFMV/csvdiff/report"
	"github.com/TFMV/csvdiff/version"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// DefaultBodyLimit caps the size of a compare request.
const DefaultBodyLimit = 64 * 1024 * 1024

// ServerOptions configures the HTTP server and the comparisons it runs.
type ServerOptions struct {
	Port      string
	Prefork   bool
	BodyLimit int

	// Reader, Diff and Report apply to every comparison. DefaultFormat is
	// used when a request does not pass ?format=.
	Reader        core.ReaderConfig
	Diff          core.DiffOptions
	Report        report.Options
	DefaultFormat string
}

// Server holds the Fiber app instance
type Server struct {
	app    *fiber.App
	opts   ServerOptions
	logger *zap.Logger
}

// NewServer initializes a new Fiber instance
func NewServer(opts ServerOptions) *Server {
	if opts.Port == "" {
		opts.Port = "3000"
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		IdleTimeout:           10 * time.Second,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		Prefork:               opts.Prefork,
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{Output: os.Stderr}))

	s := &Server{app: app, opts: opts, logger: logger.GetLogger()}

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.Info(time.Now()))
	})

	app.Post("/compare", s.handleCompare)

	return s
}

// GetApp returns the underlying Fiber app.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// handleCompare compares the uploaded file1 and file2 parts.
func (s *Server) handleCompare(c *fiber.Ctx) error {
	format := c.Query("format", s.opts.DefaultFormat)
	generator, err := report.NewGenerator(format, s.opts.Report)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	dir, err := os.MkdirTemp("", "csvdiff-*")
	if err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	defer os.RemoveAll(dir)

	paths := make([]string, 2)
	names := make([]string, 2)
	for i, field := range []string{"file1", "file2"} {
		header, err := c.FormFile(field)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("missing multipart file %q", field))
		}
		names[i] = uploadName(header, field)
		paths[i] = filepath.Join(dir, field, names[i])
		if err := os.MkdirAll(filepath.Dir(paths[i]), 0o755); err != nil {
			return fmt.Errorf("failed to create upload directory: %w", err)
		}
		if err := c.SaveFile(header, paths[i]); err != nil {
			return fmt.Errorf("failed to save %s: %w", field, err)
		}
	}

	collector := metrics.NewCollector()
	comparator := diff.NewComparator(diff.Options{
		Reader:  s.opts.Reader,
		Diff:    s.opts.Diff,
		Logger:  s.logger,
		Metrics: collector,
	})

	result, compareErr := comparator.Compare(c.UserContext(), paths[0], paths[1])
	if compareErr != nil {
		var loadErr *core.LoadError
		if !errors.As(compareErr, &loadErr) {
			return compareErr
		}
		for i := range paths {
			if loadErr.Path == paths[i] {
				loadErr.Path = names[i]
			}
		}
		body, err := generator.GenerateFailureReport(loadErr)
		if err != nil {
			return err
		}
		return send(c.Status(fiber.StatusUnprocessableEntity), format, body)
	}

	result.Source.Path = names[0]
	result.Target.Path = names[1]

	if jsonGenerator, ok := generator.(*report.JSONReportGenerator); ok {
		run := collector.Snapshot()
		jsonGenerator.Metrics = &run
	}

	body, err := generator.GenerateComparisonReport(result)
	if err != nil {
		return err
	}
	return send(c, format, body)
}

func send(c *fiber.Ctx, format string, body []byte) error {
	if strings.EqualFold(format, "json") {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	}
	return c.Send(body)
}

// uploadName keeps the base name of the uploaded file so the reader type can
// be detected from its extension.
func uploadName(header *multipart.FileHeader, field string) string {
	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return field + ".csv"
	}
	return name
}

// Start runs the Fiber server and handles graceful shutdown
func (s *Server) Start() error {
	// Channel to listen for OS termination signals (graceful shutdown)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	defer signal.Stop(quit)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("csvdiff API is running", zap.String("port", s.opts.Port))
		errc <- s.app.Listen(":" + s.opts.Port)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}
	s.logger.Info("Received shutdown signal, stopping server")

	// Create a timeout context for the shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down: %w", err)
	}

	s.logger.Info("Server shutdown successfully")
	return nil
}

// Shutdown stops the server, waiting for open requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
