package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sacolalabs/ideiad/internal/accesslog"
)

// AccessResponse is the response body for POST /api/acessos. Recording is
// best-effort, so the endpoint acknowledges even when the insert failed.
type AccessResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleRecordAccess(c echo.Context) error {
	var entry accesslog.Entry
	if err := c.Bind(&entry); err != nil {
		s.logger.Warn("invalid access entry", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if entry.Endpoint == "" || entry.Method == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "endpoint and metodo_http are required")
	}

	if s.access != nil {
		s.access.Record(c.Request().Context(), entry)
	}
	return c.JSON(http.StatusOK, AccessResponse{Message: "access recorded"})
}
