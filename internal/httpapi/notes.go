package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sacolalabs/ideiad/internal/notes"
)

// NoteResponse is the wire form of a note. Data mirrors CreatedAt; older
// clients still read the "data" key.
type NoteResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"titulo"`
	Tag       *string   `json:"tag"`
	Body      string    `json:"ideia"`
	Data      time.Time `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchRequest is the request body for POST /api/ideias/buscar.
type SearchRequest struct {
	Term string `json:"termo"`
}

// DeleteResponse is the response body for DELETE /api/ideias/:id.
type DeleteResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func noteResponse(n *notes.Note) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Tag:       n.Tag,
		Body:      n.Body,
		Data:      n.CreatedAt,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (s *Server) handleListNotes(c echo.Context) error {
	ident, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	found, err := s.notes.List(c.Request().Context(), ident)
	if err != nil {
		return s.noteError(c, err, "listing notes")
	}

	out := make([]NoteResponse, 0, len(found))
	for i := range found {
		out = append(out, noteResponse(&found[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetNote(c echo.Context) error {
	ident, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	id, err := noteID(c)
	if err != nil {
		return err
	}

	note, err := s.notes.Get(c.Request().Context(), ident, id)
	if err != nil {
		return s.noteError(c, err, "getting note")
	}
	return c.JSON(http.StatusOK, noteResponse(note))
}

func (s *Server) handleCreateNote(c echo.Context) error {
	ident, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var in notes.CreateInput
	if err := c.Bind(&in); err != nil {
		s.logger.Warn("invalid create note request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	note, err := s.notes.Create(c.Request().Context(), ident, in)
	if err != nil {
		return s.noteError(c, err, "creating note")
	}
	return c.JSON(http.StatusOK, noteResponse(note))
}

func (s *Server) handleUpdateNote(c echo.Context) error {
	ident, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	id, err := noteID(c)
	if err != nil {
		return err
	}

	var in notes.UpdateInput
	if err := c.Bind(&in); err != nil {
		s.logger.Warn("invalid update note request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	note, err := s.notes.Update(c.Request().Context(), ident, id, in)
	if err != nil {
		return s.noteError(c, err, "updating note")
	}
	return c.JSON(http.StatusOK, noteResponse(note))
}

func (s *Server) handleDeleteNote(c echo.Context) error {
	ident, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	id, err := noteID(c)
	if err != nil {
		return err
	}

	if err := s.notes.Delete(c.Request().Context(), ident, id); err != nil {
		return s.noteError(c, err, "deleting note")
	}
	return c.JSON(http.StatusOK, DeleteResponse{Message: "note deleted", Success: true})
}

func (s *Server) handleSearchNotes(c echo.Context) error {
	ident, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid search request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	results, err := s.notes.Search(c.Request().Context(), ident, req.Term)
	if err != nil {
		return s.noteError(c, err, "searching notes")
	}
	if results == nil {
		results = []notes.SearchResult{}
	}
	return c.JSON(http.StatusOK, results)
}

// noteID parses the :id path parameter.
func noteID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid note id")
	}
	return id, nil
}

// noteError maps note service errors to HTTP status codes. Ownership and
// absence both surface as 404; everything else is a generic 500 so internals
// never leak to the client.
func (s *Server) noteError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, notes.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "note not found")
	case errors.Is(err, notes.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, notes.ErrInvalidOwner):
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	default:
		s.logger.Error(action+" failed",
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
