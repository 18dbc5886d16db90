package view

import (
	"time"

	"github.com/ryanbastic/gymdesk/internal/model"
	"github.com/ryanbastic/gymdesk/internal/resolve"
)

// Event is a training placed on the calendar.
type Event struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	CustomerState ResolutionState `json:"customerState"`
}

// CalendarEvents builds one event per training, titled
// "<activity> - <customer name>".
func CalendarEvents(trainings []model.Training, resolved resolve.Results) []Event {
	events := make([]Event, len(trainings))
	for i, t := range trainings {
		name, state := customerName(resolved, t.CustomerLink)
		if state == StateUnknown {
			name = UnknownCustomerLabel
		}
		events[i] = Event{
			ID:            t.Self,
			Title:         t.Activity + " - " + name,
			Start:         t.Date,
			End:           t.End(),
			CustomerState: state,
		}
	}
	return events
}
