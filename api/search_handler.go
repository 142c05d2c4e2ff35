package api

import (
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// handleSearch handles POST /namespace/:ids/search requests.
//
// Path parameter :ids is one or more comma-separated namespace IDs. Query
// parameters:
//   - max (optional): requested number of matches. Values outside [1, 100]
//     fall back to the engine default of 10.
//   - notstrict (optional): any value enables lenient parameter comparison.
//
// The request body is the raw query sketch file, spooled to a temp file for
// the duration of the request.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	ids := splitIDs(c.Params("ids"))
	if len(ids) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "at least one namespace ID is required",
		})
	}

	returnCount := 0
	if maxStr := c.Query("max"); maxStr != "" {
		parsed, err := strconv.Atoi(maxStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "max must be an integer",
			})
		}
		returnCount = parsed
	}

	// Presence of notstrict is what matters, not its value.
	strict := !c.Request().URI().QueryArgs().Has("notstrict")

	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "request body must contain a query sketch",
		})
	}

	sketchFile, err := os.CreateTemp(s.config.TempDir, "upload-*.sketch")
	if err != nil {
		s.logger.Error("failed to create sketch spool file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal server error",
		})
	}
	defer os.Remove(sketchFile.Name())

	if _, err := sketchFile.Write(body); err != nil {
		sketchFile.Close()
		s.logger.Error("failed to spool query sketch", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal server error",
		})
	}
	if err := sketchFile.Close(); err != nil {
		s.logger.Error("failed to spool query sketch", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal server error",
		})
	}

	matches, err := s.engine.MeasureDistance(
		c.Context(), ids, sketchFile.Name(), returnCount, strict)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(matches)
}

func splitIDs(param string) []string {
	var ids []string
	for _, id := range strings.Split(param, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
