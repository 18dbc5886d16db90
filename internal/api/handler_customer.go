package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/gymdesk/internal/desk"
	"github.com/ryanbastic/gymdesk/internal/model"
	"github.com/ryanbastic/gymdesk/internal/view"
)

// --- Huma Input/Output types ---

type ListCustomersInput struct {
	Q string `query:"q" doc:"Case-insensitive search over every visible field"`
}

type CustomerListResponse struct {
	Filter string             `json:"filter" doc:"Search term in effect"`
	Rows   []view.CustomerRow `json:"rows" doc:"Customers matching the filter"`
	Error  string             `json:"error,omitempty" doc:"Error from the last failed load; rows are from the last good one"`
}

type ListCustomersOutput struct {
	Body CustomerListResponse
}

type CreateCustomerInput struct {
	Body model.CustomerForm
}

type DeleteCustomerInput struct {
	Self string `query:"self" doc:"Customer self-link" required:"true" minLength:"1"`
}

type AddTrainingBody struct {
	Date     time.Time `json:"date" doc:"Start time" required:"true"`
	Duration int       `json:"duration" doc:"Length in minutes" required:"true"`
	Activity string    `json:"activity" doc:"Activity name" required:"true"`
}

type AddTrainingInput struct {
	Self string `query:"self" doc:"Customer self-link" required:"true" minLength:"1"`
	Body AddTrainingBody
}

type ExportInput struct {
	Q string `query:"q" doc:"Case-insensitive search over every visible field"`
}

type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// --- Handler ---

type CustomerHandler struct {
	board     *desk.CustomerBoard
	trainings *desk.TrainingBoard
	logger    *slog.Logger
}

func NewCustomerHandler(board *desk.CustomerBoard, trainings *desk.TrainingBoard, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{board: board, trainings: trainings, logger: logger}
}

func registerCustomerRoutes(api huma.API, h *CustomerHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-customers",
		Method:      http.MethodGet,
		Path:        "/v1/customers",
		Summary:     "List customers",
		Tags:        []string{"customers"},
	}, h.ListCustomers)

	huma.Register(api, huma.Operation{
		OperationID:   "create-customer",
		Method:        http.MethodPost,
		Path:          "/v1/customers",
		Summary:       "Create a customer",
		Tags:          []string{"customers"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateCustomer)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-customer",
		Method:        http.MethodDelete,
		Path:          "/v1/customers",
		Summary:       "Delete a customer",
		Tags:          []string{"customers"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteCustomer)

	huma.Register(api, huma.Operation{
		OperationID:   "add-training",
		Method:        http.MethodPost,
		Path:          "/v1/customers/trainings",
		Summary:       "Add a training for a customer",
		Tags:          []string{"customers"},
		DefaultStatus: http.StatusCreated,
	}, h.AddTraining)

	huma.Register(api, huma.Operation{
		OperationID: "export-customers",
		Method:      http.MethodGet,
		Path:        "/v1/customers/export",
		Summary:     "Export customers as delimited text",
		Tags:        []string{"customers"},
	}, h.ExportCustomers)

	huma.Register(api, huma.Operation{
		OperationID: "reload-customers",
		Method:      http.MethodPost,
		Path:        "/v1/customers/reload",
		Summary:     "Reload customers from the API",
		Tags:        []string{"customers"},
	}, h.ReloadCustomers)
}

func (h *CustomerHandler) ListCustomers(ctx context.Context, input *ListCustomersInput) (*ListCustomersOutput, error) {
	return &ListCustomersOutput{Body: h.listResponse(input.Q)}, nil
}

func (h *CustomerHandler) CreateCustomer(ctx context.Context, input *CreateCustomerInput) (*ListCustomersOutput, error) {
	if err := h.board.Create(ctx, input.Body); err != nil {
		return nil, toStatusError(h.logger, "failed to create customer", err)
	}
	h.logger.Info("customer created", "name", input.Body.Firstname+" "+input.Body.Lastname)
	return &ListCustomersOutput{Body: h.listResponse("")}, nil
}

func (h *CustomerHandler) DeleteCustomer(ctx context.Context, input *DeleteCustomerInput) (*struct{}, error) {
	if err := h.board.Delete(ctx, input.Self); err != nil {
		return nil, toStatusError(h.logger, "failed to delete customer", err)
	}
	h.logger.Info("customer deleted", "self", input.Self)
	reloadTrainings(ctx, h.logger, h.trainings)
	return nil, nil
}

func (h *CustomerHandler) AddTraining(ctx context.Context, input *AddTrainingInput) (*struct{}, error) {
	form := model.TrainingForm{
		Date:     input.Body.Date,
		Duration: input.Body.Duration,
		Activity: input.Body.Activity,
	}
	if err := h.board.AddTraining(ctx, input.Self, form); err != nil {
		return nil, toStatusError(h.logger, "failed to add training", err)
	}
	h.logger.Info("training added", "customer", input.Self, "activity", form.Activity)
	reloadTrainings(ctx, h.logger, h.trainings)
	return nil, nil
}

func (h *CustomerHandler) ExportCustomers(ctx context.Context, input *ExportInput) (*ExportOutput, error) {
	return csvOutput("customers.csv", h.board.ExportMatching(input.Q)), nil
}

func (h *CustomerHandler) ReloadCustomers(ctx context.Context, input *struct{}) (*ListCustomersOutput, error) {
	if err := h.board.Load(ctx); err != nil {
		return nil, toStatusError(h.logger, "failed to load customers", err)
	}
	return &ListCustomersOutput{Body: h.listResponse("")}, nil
}

// listResponse filters per request; the board's own filter is left alone so
// concurrent callers never see each other's term.
func (h *CustomerHandler) listResponse(term string) CustomerListResponse {
	resp := CustomerListResponse{Filter: term, Rows: h.board.Search(term)}
	if err := h.board.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// reloadTrainings keeps the training board in step with customer-side
// mutations. Failures stay in the training board's error state.
func reloadTrainings(ctx context.Context, logger *slog.Logger, trainings *desk.TrainingBoard) {
	if trainings == nil {
		return
	}
	if err := trainings.Load(ctx); err != nil {
		logger.Warn("training reload failed", "error", err)
	}
}

func csvOutput(filename, text string) *ExportOutput {
	return &ExportOutput{
		ContentType:        "text/csv; charset=utf-8",
		ContentDisposition: `attachment; filename="` + filename + `"`,
		Body:               []byte(text),
	}
}
