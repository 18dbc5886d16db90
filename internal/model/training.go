package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/ryanbastic/gymdesk/internal/hal"
)

// Training is a training session as read from the API. CustomerLink is the
// owning customer's self-link.
type Training struct {
	Self         string    `json:"-"`
	CustomerLink string    `json:"-"`
	Date         time.Time `json:"date"`
	Duration     int       `json:"duration"`
	Activity     string    `json:"activity"`
}

// TrainingFromEntity decodes a training entity. Both the self and customer
// links are required.
func TrainingFromEntity(e hal.Entity) (Training, error) {
	self := e.Self()
	if self == "" {
		return Training{}, fmt.Errorf("training: %w %q", ErrMissingLink, hal.RelSelf)
	}
	customer := e.Link(hal.RelCustomer)
	if customer == "" {
		return Training{}, fmt.Errorf("training %s: %w %q", self, ErrMissingLink, hal.RelCustomer)
	}
	t := Training{Self: self, CustomerLink: customer}
	if err := e.Decode(&t); err != nil {
		return Training{}, fmt.Errorf("training %s: %w", self, err)
	}
	return t, nil
}

// TrainingsFromEntities decodes every entity. Entities that fail to decode
// are left out and their errors returned in skipped, in input order.
func TrainingsFromEntities(items []hal.Entity) (trainings []Training, skipped []error) {
	trainings = make([]Training, 0, len(items))
	for _, e := range items {
		t, err := TrainingFromEntity(e)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		trainings = append(trainings, t)
	}
	return trainings, skipped
}

// End is the session start plus its duration.
func (t Training) End() time.Time {
	return t.Date.Add(time.Duration(t.Duration) * time.Minute)
}

// TrainingForm is the input for adding a training to a customer.
type TrainingForm struct {
	Date     time.Time `json:"date"`
	Duration int       `json:"duration"`
	Activity string    `json:"activity"`
}

// Validate checks the form the way the add-training dialog does.
func (f TrainingForm) Validate() error {
	var errs ValidationErrors
	if f.Date.IsZero() {
		errs = append(errs, ValidationError{Field: "date", Reason: "Date is required"})
	}
	if f.Duration <= 0 {
		errs = append(errs, ValidationError{Field: "duration", Reason: "Valid duration is required"})
	}
	if strings.TrimSpace(f.Activity) == "" {
		errs = append(errs, ValidationError{Field: "activity", Reason: "Activity is required"})
	}
	return errs.orNil()
}

// TrainingBody is the create payload. The customer association is sent as
// the customer's self-link.
type TrainingBody struct {
	Date     string `json:"date"`
	Duration int    `json:"duration"`
	Activity string `json:"activity"`
	Customer string `json:"customer"`
}

// Body builds the create payload for the customer at customerLink.
func (f TrainingForm) Body(customerLink string) TrainingBody {
	return TrainingBody{
		Date:     f.Date.UTC().Format(time.RFC3339Nano),
		Duration: f.Duration,
		Activity: f.Activity,
		Customer: customerLink,
	}
}
