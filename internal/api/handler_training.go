package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/gymdesk/internal/desk"
	"github.com/ryanbastic/gymdesk/internal/view"
)

// --- Huma Input/Output types ---

type ListTrainingsInput struct {
	Q string `query:"q" doc:"Case-insensitive search over every visible field"`
}

type TrainingListResponse struct {
	Filter  string             `json:"filter" doc:"Search term in effect"`
	Pass    uint64             `json:"pass" doc:"Current customer resolution pass"`
	Settled bool               `json:"settled" doc:"Whether every customer of the pass has resolved"`
	Rows    []view.TrainingRow `json:"rows" doc:"Trainings matching the filter"`
	Error   string             `json:"error,omitempty" doc:"Error from the last failed load; rows are from the last good one"`
}

type ListTrainingsOutput struct {
	Body TrainingListResponse
}

type DeleteTrainingInput struct {
	Self string `query:"self" doc:"Training self-link" required:"true" minLength:"1"`
}

type CalendarOutput struct {
	Body []view.Event
}

// --- Handler ---

type TrainingHandler struct {
	board  *desk.TrainingBoard
	logger *slog.Logger
}

func NewTrainingHandler(board *desk.TrainingBoard, logger *slog.Logger) *TrainingHandler {
	return &TrainingHandler{board: board, logger: logger}
}

func registerTrainingRoutes(api huma.API, h *TrainingHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-trainings",
		Method:      http.MethodGet,
		Path:        "/v1/trainings",
		Summary:     "List trainings with their customers",
		Tags:        []string{"trainings"},
	}, h.ListTrainings)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-training",
		Method:        http.MethodDelete,
		Path:          "/v1/trainings",
		Summary:       "Delete a training",
		Tags:          []string{"trainings"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteTraining)

	huma.Register(api, huma.Operation{
		OperationID: "export-trainings",
		Method:      http.MethodGet,
		Path:        "/v1/trainings/export",
		Summary:     "Export trainings as delimited text",
		Tags:        []string{"trainings"},
	}, h.ExportTrainings)

	huma.Register(api, huma.Operation{
		OperationID: "reload-trainings",
		Method:      http.MethodPost,
		Path:        "/v1/trainings/reload",
		Summary:     "Reload trainings and start a new resolution pass",
		Tags:        []string{"trainings"},
	}, h.ReloadTrainings)

	huma.Register(api, huma.Operation{
		OperationID: "calendar",
		Method:      http.MethodGet,
		Path:        "/v1/calendar",
		Summary:     "Trainings as calendar events",
		Tags:        []string{"trainings"},
	}, h.Calendar)
}

func (h *TrainingHandler) ListTrainings(ctx context.Context, input *ListTrainingsInput) (*ListTrainingsOutput, error) {
	return &ListTrainingsOutput{Body: h.listResponse(input.Q)}, nil
}

func (h *TrainingHandler) DeleteTraining(ctx context.Context, input *DeleteTrainingInput) (*struct{}, error) {
	if err := h.board.Delete(ctx, input.Self); err != nil {
		return nil, toStatusError(h.logger, "failed to delete training", err)
	}
	h.logger.Info("training deleted", "self", input.Self)
	return nil, nil
}

func (h *TrainingHandler) ExportTrainings(ctx context.Context, input *ExportInput) (*ExportOutput, error) {
	return csvOutput("trainings.csv", h.board.ExportMatching(input.Q)), nil
}

func (h *TrainingHandler) ReloadTrainings(ctx context.Context, input *struct{}) (*ListTrainingsOutput, error) {
	if err := h.board.Load(ctx); err != nil {
		return nil, toStatusError(h.logger, "failed to load trainings", err)
	}
	return &ListTrainingsOutput{Body: h.listResponse("")}, nil
}

func (h *TrainingHandler) Calendar(ctx context.Context, input *struct{}) (*CalendarOutput, error) {
	return &CalendarOutput{Body: h.board.Events()}, nil
}

func (h *TrainingHandler) listResponse(term string) TrainingListResponse {
	resp := TrainingListResponse{
		Filter: term,
		Pass:   h.board.Pass(),
		Rows:   h.board.Search(term),
	}
	select {
	case <-h.board.Settled():
		resp.Settled = true
	default:
	}
	if err := h.board.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}
