package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/gymdesk/internal/desk"
	"github.com/ryanbastic/gymdesk/internal/edit"
	"github.com/ryanbastic/gymdesk/internal/hal"
	"github.com/ryanbastic/gymdesk/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// toStatusError maps desk, editor and upstream errors onto HTTP problems.
// Anything unrecognised is logged and reported as a 500.
func toStatusError(logger *slog.Logger, msg string, err error) error {
	var (
		verrs model.ValidationErrors
		rf    *hal.RequestFailed
		te    *hal.TransportError
	)

	switch {
	case errors.As(err, &verrs):
		details := make([]error, len(verrs))
		for i, v := range verrs {
			details[i] = &huma.ErrorDetail{Message: v.Reason, Location: "body." + v.Field}
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	case errors.Is(err, desk.ErrRowNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, edit.ErrNotEditing),
		errors.Is(err, edit.ErrCommitInProgress),
		errors.Is(err, edit.ErrStaleOverlay):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, edit.ErrUnknownField):
		return huma.Error400BadRequest(err.Error())
	case errors.As(err, &rf):
		logger.Warn(msg, "error", err)
		return huma.Error502BadGateway(
			fmt.Sprintf("%s: upstream responded %d %s", msg, rf.Status, rf.StatusText),
			&huma.ErrorDetail{Location: "upstream.status", Value: rf.Status},
		)
	case errors.As(err, &te):
		logger.Warn(msg, "error", err)
		return huma.Error503ServiceUnavailable(msg + ": upstream unavailable")
	}

	logger.Error(msg, "error", err)
	return huma.Error500InternalServerError(msg)
}
