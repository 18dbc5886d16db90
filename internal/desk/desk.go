// Package desk holds the two live views of the admin desk: the customer
// board with its inline editor and the training board with its resolved
// customer names. Boards are safe for concurrent use.
package desk

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ryanbastic/gymdesk/internal/export"
	"github.com/ryanbastic/gymdesk/internal/hal"
	"github.com/ryanbastic/gymdesk/internal/model"
	"github.com/ryanbastic/gymdesk/internal/view"
)

// ErrRowNotFound is returned when an id matches no loaded row.
var ErrRowNotFound = errors.New("row not found")

// Collection paths and embedded relations on the hypermedia API.
const (
	CustomersPath = "/customers"
	TrainingsPath = "/trainings"

	relCustomers = "customers"
	relTrainings = "trainings"
)

// CustomerColumns is the default customer export layout.
var CustomerColumns = []export.Column{
	{Field: model.FieldFirstname, Header: "First Name"},
	{Field: model.FieldLastname, Header: "Last Name"},
	{Field: model.FieldStreetaddress, Header: "Address"},
	{Field: model.FieldPostcode, Header: "Post Code"},
	{Field: model.FieldCity, Header: "City"},
	{Field: model.FieldEmail, Header: "Email"},
	{Field: model.FieldPhone, Header: "Phone"},
}

// TrainingColumns is the training export layout.
var TrainingColumns = []export.Column{
	{Field: view.FieldActivity, Header: "Activity"},
	{Field: view.FieldDate, Header: "Date"},
	{Field: view.FieldDuration, Header: "Duration (min)"},
	{Field: view.FieldCustomer, Header: "Customer"},
}

// Client is the part of the hypermedia client the boards use.
type Client interface {
	List(ctx context.Context, path string) (*hal.Collection, error)
	Create(ctx context.Context, path string, body any) (*hal.Entity, error)
	Update(ctx context.Context, link string, body any) (*hal.Entity, error)
	Delete(ctx context.Context, link string) error
}

type settings struct {
	logger          *slog.Logger
	location        *time.Location
	customerColumns []export.Column
}

// Option configures a board.
type Option func(*settings)

// WithLogger sets the board logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithLocation sets the zone dates are displayed in.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) { s.location = loc }
}

// WithCustomerColumns overrides CustomerColumns for the customer export.
func WithCustomerColumns(cols []export.Column) Option {
	return func(s *settings) {
		if len(cols) > 0 {
			s.customerColumns = cols
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		logger:          slog.New(slog.DiscardHandler),
		location:        time.UTC,
		customerColumns: CustomerColumns,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
