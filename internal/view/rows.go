// Package view turns fetched collections and resolver outcomes into flat,
// render-ready rows. Every function here is pure: rows are rebuilt from
// their inputs on each call and hold no references back into them.
package view

import (
	"strconv"
	"time"

	"github.com/ryanbastic/gymdesk/internal/model"
	"github.com/ryanbastic/gymdesk/internal/resolve"
)

// Placeholders shown for a related customer that is not (yet) resolved.
const (
	LoadingLabel         = "Loading..."
	UnknownLabel         = "Unknown"
	UnknownCustomerLabel = "Unknown Customer"
)

// DateLayout renders dates as dd.MM.yyyy HH:mm.
const DateLayout = "02.01.2006 15:04"

// FormatDate renders t in loc using DateLayout. A nil loc means UTC.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// ResolutionState tells whether a related field holds real data.
type ResolutionState string

const (
	StateLoading  ResolutionState = "loading"
	StateResolved ResolutionState = "resolved"
	StateUnknown  ResolutionState = "unknown"
)

// CustomerRow is one line of the customer table. ID is the self-link.
type CustomerRow struct {
	ID            string `json:"id"`
	Firstname     string `json:"firstname"`
	Lastname      string `json:"lastname"`
	Streetaddress string `json:"streetaddress"`
	Postcode      string `json:"postcode"`
	City          string `json:"city"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	TrainingsLink string `json:"trainingsLink,omitempty"`
}

// CustomerRows builds one row per customer, in input order.
func CustomerRows(customers []model.Customer) []CustomerRow {
	rows := make([]CustomerRow, len(customers))
	for i, c := range customers {
		rows[i] = CustomerRow{
			ID:            c.Self,
			Firstname:     c.Firstname,
			Lastname:      c.Lastname,
			Streetaddress: c.Streetaddress,
			Postcode:      c.Postcode,
			City:          c.City,
			Email:         c.Email,
			Phone:         c.Phone,
			TrainingsLink: c.TrainingsLink,
		}
	}
	return rows
}

func (r CustomerRow) RowID() string { return r.ID }

// Values returns every visible field.
func (r CustomerRow) Values() []string {
	return []string{r.Firstname, r.Lastname, r.Streetaddress, r.Postcode, r.City, r.Email, r.Phone}
}

// Field returns the named field, or "" for unknown names.
func (r CustomerRow) Field(name string) string {
	return r.EditableFields()[name]
}

// EditableFields returns a fresh copy of the fields the editor may change.
func (r CustomerRow) EditableFields() map[string]string {
	return model.CustomerForm{
		Firstname:     r.Firstname,
		Lastname:      r.Lastname,
		Streetaddress: r.Streetaddress,
		Postcode:      r.Postcode,
		City:          r.City,
		Email:         r.Email,
		Phone:         r.Phone,
	}.Fields()
}

// Training row field names.
const (
	FieldDate     = "date"
	FieldDuration = "duration"
	FieldActivity = "activity"
	FieldCustomer = "customer"
)

// TrainingFields lists the training row fields in display order.
var TrainingFields = []string{FieldActivity, FieldDate, FieldDuration, FieldCustomer}

// TrainingRow is one line of the training table with its customer resolved
// to a display name.
type TrainingRow struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	DateText      string          `json:"dateText"`
	Duration      int             `json:"duration"`
	Activity      string          `json:"activity"`
	CustomerLink  string          `json:"customerLink"`
	Customer      string          `json:"customer"`
	CustomerState ResolutionState `json:"customerState"`
}

// TrainingRows builds one row per training, in input order. The customer
// column is looked up in resolved by the training's customer link.
func TrainingRows(trainings []model.Training, resolved resolve.Results, loc *time.Location) []TrainingRow {
	rows := make([]TrainingRow, len(trainings))
	for i, t := range trainings {
		name, state := customerName(resolved, t.CustomerLink)
		if state == StateUnknown {
			name = UnknownLabel
		}
		rows[i] = TrainingRow{
			ID:            t.Self,
			Date:          t.Date,
			DateText:      FormatDate(t.Date, loc),
			Duration:      t.Duration,
			Activity:      t.Activity,
			CustomerLink:  t.CustomerLink,
			Customer:      name,
			CustomerState: state,
		}
	}
	return rows
}

func (r TrainingRow) RowID() string { return r.ID }

// Values returns every visible field. The date is the formatted text, not
// the raw timestamp.
func (r TrainingRow) Values() []string {
	return []string{r.Activity, r.DateText, strconv.Itoa(r.Duration), r.Customer}
}

// Field returns the named field, or "" for unknown names.
func (r TrainingRow) Field(name string) string {
	switch name {
	case FieldDate:
		return r.DateText
	case FieldDuration:
		return strconv.Itoa(r.Duration)
	case FieldActivity:
		return r.Activity
	case FieldCustomer:
		return r.Customer
	}
	return ""
}

// customerName maps a resolver outcome to a display name. A resolved entity
// that does not decode as a customer counts as unknown.
func customerName(resolved resolve.Results, link string) (string, ResolutionState) {
	outcome, ok := resolved[link]
	if !ok {
		return LoadingLabel, StateLoading
	}
	e, ok := outcome.Entity()
	if !ok {
		return "", StateUnknown
	}
	c, err := model.CustomerFromEntity(*e)
	if err != nil {
		return "", StateUnknown
	}
	return c.FullName(), StateResolved
}
