package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/scanon/AssemblyHomologyService/pkg/core"
	"github.com/scanon/AssemblyHomologyService/pkg/storage"
	"github.com/scanon/AssemblyHomologyService/pkg/utils"
)

// ErrorResponse is the JSON error body returned by all handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RootResponse describes the service for clients hitting the root path.
type RootResponse struct {
	Service    string `json:"service"`
	Version    string `json:"version"`
	ServerTime int64  `json:"servertime"`
}

// handleRoot returns the service name, version, and current server time in
// epoch milliseconds.
func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(RootResponse{
		Service:    "Assembly Homology Service",
		Version:    utils.Version,
		ServerTime: time.Now().UnixMilli(),
	})
}

// handleListNamespaces returns all namespaces.
func (s *Server) handleListNamespaces(c *fiber.Ctx) error {
	namespaces, err := s.engine.Namespaces(c.Context())
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(namespaces)
}

// handleGetNamespace returns a single namespace by ID.
func (s *Server) handleGetNamespace(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	ns, err := s.engine.Namespace(c.Context(), id)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(ns)
}

// errorResponse maps engine errors onto HTTP statuses: unknown namespace →
// 404, other user-input errors → 400, everything else → opaque 500 with the
// full error logged.
func (s *Server) errorResponse(c *fiber.Ctx, err error) error {
	var noNS storage.NoSuchNamespaceError
	if errors.As(err, &noNS) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	if core.IsUserError(err) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	s.logger.Error("request failed",
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal server error"})
}
