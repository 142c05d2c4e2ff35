// Package api provides the HTTP API server for the assembly homology
// service.
package api

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/scanon/AssemblyHomologyService/pkg/homology"
)

// Homology is the engine surface the API consumes. Satisfied by
// *core.Engine; faked in tests.
type Homology interface {
	// Namespaces returns all namespaces available in the system.
	Namespaces(ctx context.Context) ([]homology.Namespace, error)

	// Namespace returns one namespace by ID.
	Namespace(ctx context.Context, id string) (homology.Namespace, error)

	// MeasureDistance measures a single-sequence query sketch against the
	// given namespaces.
	MeasureDistance(ctx context.Context, namespaceIDs []string, sketchPath string, returnCount int, strict bool) (*homology.SequenceMatches, error)
}

// Server is the API server for querying the assembly homology system.
type Server struct {
	config Config
	engine Homology
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server. The engine is injected so it can be
// shared with the CLI search path.
func NewServer(config Config, engine Homology, logger *zap.Logger) *Server {
	config = config.withDefaults()
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             config.MaxSketchBytes,
	})

	s := &Server{
		config: config,
		engine: engine,
		logger: logger,
		app:    app,
	}

	app.Get("/", s.handleRoot)
	app.Get("/namespace", s.handleListNamespaces)
	app.Get("/namespace/:id", s.handleGetNamespace)
	app.Post("/namespace/:ids/search", s.handleSearch)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
