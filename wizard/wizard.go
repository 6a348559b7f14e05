// Package wizard implements the four-step travel planning form as a finite
// state machine. Each forward transition is guarded by validation of the
// fields collected in the current step; going back is always allowed.
package wizard

import (
	"errors"
	"fmt"

	"github.com/kabuchi/folio/booking"
)

// Step is a wizard state.
type Step int

const (
	StepDestination Step = iota + 1
	StepLogistics
	StepInterests
	StepContact
)

// Steps lists every state in order.
var Steps = []Step{StepDestination, StepLogistics, StepInterests, StepContact}

func (s Step) String() string {
	switch s {
	case StepDestination:
		return "destination"
	case StepLogistics:
		return "logistics"
	case StepInterests:
		return "interests"
	case StepContact:
		return "contact"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Valid reports whether s is one of Steps.
func (s Step) Valid() bool {
	return s >= StepDestination && s <= StepContact
}

var (
	// ErrLastStep is returned by Next in StepContact; use Submit instead.
	ErrLastStep = errors.New("wizard: already at the last step")
	// ErrNotReady is returned by Submit before StepContact is reached.
	ErrNotReady = errors.New("wizard: submit is only allowed on the last step")
)

// Fields holds every value the wizard collects.
type Fields struct {
	Destination string `form:"destination"`
	TravelDates string `form:"travelDates"`
	Budget      string `form:"budget"`
	Travelers   string `form:"travelers"`
	Interests   string `form:"interests"`
	Name        string `form:"name"`
	Email       string `form:"email"`
}

type destinationStep struct {
	Destination string `json:"destination" validate:"min=2"`
	TravelDates string `json:"travelDates" validate:"min=2"`
}

type logisticsStep struct {
	Budget    string `json:"budget" validate:"oneof=budget mid luxury"`
	Travelers string `json:"travelers" validate:"positive"`
}

type interestsStep struct {
	Interests string `json:"interests" validate:"min=2"`
}

type contactStep struct {
	Name  string `json:"name" validate:"min=2"`
	Email string `json:"email" validate:"email"`
}

// guard returns the validation target for step s.
func (f Fields) guard(s Step) any {
	switch s {
	case StepDestination:
		return destinationStep{Destination: f.Destination, TravelDates: f.TravelDates}
	case StepLogistics:
		return logisticsStep{Budget: f.Budget, Travelers: f.Travelers}
	case StepInterests:
		return interestsStep{Interests: f.Interests}
	default:
		return contactStep{Name: f.Name, Email: f.Email}
	}
}

// Wizard is the state of one travel planning form. It lives for a single
// page interaction; nothing is persisted.
type Wizard struct {
	step   Step
	fields Fields
	errs   booking.FieldErrors
}

// New returns a wizard at StepDestination with no data.
func New() *Wizard {
	return &Wizard{step: StepDestination}
}

// Resume rebuilds a wizard from values carried by the page. An out of range
// step restarts at StepDestination.
func Resume(step Step, f Fields) *Wizard {
	if !step.Valid() {
		step = StepDestination
	}
	return &Wizard{step: step, fields: f}
}

// Step returns the current state.
func (w *Wizard) Step() Step { return w.step }

// Fields returns the values entered so far.
func (w *Wizard) Fields() Fields { return w.fields }

// Errors returns the validation errors from the last rejected transition.
func (w *Wizard) Errors() booking.FieldErrors { return w.errs }

// Next validates the current step and advances. On failure the wizard stays
// put and the returned error is a booking.FieldErrors.
func (w *Wizard) Next() error {
	if w.step == StepContact {
		return ErrLastStep
	}
	if err := w.check(w.step); err != nil {
		return err
	}
	w.step++
	return nil
}

// Back moves to the previous step without validation. It is a no-op on the first step.
func (w *Wizard) Back() {
	w.errs = nil
	if w.step > StepDestination {
		w.step--
	}
}

// Submit validates every step and returns the merged travel request. If an
// earlier step fails, the wizard moves back to it.
func (w *Wizard) Submit() (*booking.Travel, error) {
	if w.step != StepContact {
		return nil, ErrNotReady
	}
	for _, s := range Steps {
		if err := w.check(s); err != nil {
			w.step = s
			return nil, err
		}
	}
	f := w.fields
	return &booking.Travel{
		Contact: booking.Contact{
			Name:  booking.Text(f.Name),
			Email: booking.Text(f.Email),
		},
		Destination: booking.Text(f.Destination),
		TravelDates: booking.Text(f.TravelDates),
		Budget:      booking.Text(f.Budget),
		Travelers:   booking.Text(f.Travelers),
		Interests:   booking.Text(f.Interests),
	}, nil
}

// Reset returns the wizard to its initial empty state.
func (w *Wizard) Reset() {
	*w = Wizard{step: StepDestination}
}

func (w *Wizard) check(s Step) error {
	w.errs = nil
	err := booking.Check(w.fields.guard(s))
	if err == nil {
		return nil
	}
	var fe booking.FieldErrors
	if errors.As(err, &fe) {
		w.errs = fe
	}
	return err
}
