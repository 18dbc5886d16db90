package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/gymdesk/internal/desk"
	"github.com/ryanbastic/gymdesk/internal/edit"
)

// --- Huma Input/Output types ---

type EditStateOutput struct {
	Body edit.Snapshot
}

type BeginEditBody struct {
	Self string `json:"self" doc:"Self-link of the customer to edit" minLength:"1"`
}

type BeginEditInput struct {
	Body BeginEditBody
}

type ChangeFieldBody struct {
	Token string `json:"token,omitempty" doc:"Overlay token from begin; empty targets the current overlay"`
	Field string `json:"field" doc:"Field name" minLength:"1"`
	Value string `json:"value" doc:"New value"`
}

type ChangeFieldInput struct {
	Body ChangeFieldBody
}

type CommitEditBody struct {
	Token string `json:"token,omitempty" doc:"Overlay token from begin; empty targets the current overlay"`
}

type CommitEditInput struct {
	Body CommitEditBody
}

type CancelEditInput struct {
	Token string `query:"token" doc:"Overlay token from begin; empty targets the current overlay"`
}

// --- Handler ---

// EditHandler exposes the customer board's single edit overlay.
type EditHandler struct {
	board     *desk.CustomerBoard
	trainings *desk.TrainingBoard
	logger    *slog.Logger
}

func NewEditHandler(board *desk.CustomerBoard, trainings *desk.TrainingBoard, logger *slog.Logger) *EditHandler {
	return &EditHandler{board: board, trainings: trainings, logger: logger}
}

func registerEditRoutes(api huma.API, h *EditHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-edit",
		Method:      http.MethodGet,
		Path:        "/v1/customers/edit",
		Summary:     "Get the edit overlay",
		Tags:        []string{"edit"},
	}, h.GetEdit)

	huma.Register(api, huma.Operation{
		OperationID: "begin-edit",
		Method:      http.MethodPost,
		Path:        "/v1/customers/edit",
		Summary:     "Start editing a customer",
		Tags:        []string{"edit"},
	}, h.BeginEdit)

	huma.Register(api, huma.Operation{
		OperationID: "change-edit-field",
		Method:      http.MethodPost,
		Path:        "/v1/customers/edit/field",
		Summary:     "Change one field of the overlay",
		Tags:        []string{"edit"},
	}, h.ChangeField)

	huma.Register(api, huma.Operation{
		OperationID: "commit-edit",
		Method:      http.MethodPost,
		Path:        "/v1/customers/edit/commit",
		Summary:     "Validate and save the overlay",
		Tags:        []string{"edit"},
	}, h.CommitEdit)

	huma.Register(api, huma.Operation{
		OperationID:   "cancel-edit",
		Method:        http.MethodDelete,
		Path:          "/v1/customers/edit",
		Summary:       "Discard the overlay",
		Tags:          []string{"edit"},
		DefaultStatus: http.StatusNoContent,
	}, h.CancelEdit)
}

func (h *EditHandler) GetEdit(ctx context.Context, input *struct{}) (*EditStateOutput, error) {
	return &EditStateOutput{Body: h.board.EditState()}, nil
}

func (h *EditHandler) BeginEdit(ctx context.Context, input *BeginEditInput) (*EditStateOutput, error) {
	s, err := h.board.BeginEdit(input.Body.Self)
	if err != nil {
		return nil, toStatusError(h.logger, "failed to begin edit", err)
	}
	return &EditStateOutput{Body: s}, nil
}

func (h *EditHandler) ChangeField(ctx context.Context, input *ChangeFieldInput) (*EditStateOutput, error) {
	if err := h.board.ChangeField(input.Body.Token, input.Body.Field, input.Body.Value); err != nil {
		return nil, toStatusError(h.logger, "failed to change field", err)
	}
	return &EditStateOutput{Body: h.board.EditState()}, nil
}

func (h *EditHandler) CommitEdit(ctx context.Context, input *CommitEditInput) (*EditStateOutput, error) {
	rowID := h.board.EditState().RowID
	if err := h.board.CommitEdit(ctx, input.Body.Token); err != nil {
		return nil, toStatusError(h.logger, "failed to save customer", err)
	}
	h.logger.Info("customer updated", "self", rowID)
	// Training rows and calendar titles carry the customer's name.
	reloadTrainings(ctx, h.logger, h.trainings)
	return &EditStateOutput{Body: h.board.EditState()}, nil
}

func (h *EditHandler) CancelEdit(ctx context.Context, input *CancelEditInput) (*struct{}, error) {
	if err := h.board.CancelEdit(input.Token); err != nil {
		return nil, toStatusError(h.logger, "failed to cancel edit", err)
	}
	return nil, nil
}
