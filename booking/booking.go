// Package booking models the contact and booking submissions sent from the
// site's forms. Each form kind has its own payload type; the JSON wire format
// selects the kind with a "type" field.
package booking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags a booking request.
type Kind string

const (
	KindDJ     Kind = "dj"
	KindAI     Kind = "ai"
	KindTravel Kind = "travel"
)

var (
	// ErrUnknownKind is returned for a Request of a type this package does not define.
	ErrUnknownKind = errors.New("booking: unknown request type")
	// ErrMissingContact is returned by RequireContact when name or email is blank.
	ErrMissingContact = errors.New("booking: missing required fields")
)

// Request is one submitted form. The concrete type is one of *DJ, *AI or *Travel.
type Request interface {
	Kind() Kind
	ContactInfo() Contact
}

// Contact is shared by every request kind.
type Contact struct {
	Name  Text `json:"name" form:"name" validate:"min=2"`
	Email Text `json:"email" form:"email" validate:"email"`
}

// ContactInfo returns the submitter's contact details.
func (c Contact) ContactInfo() Contact { return c }

// DJ is a DJ booking enquiry. It is also the kind used when "type" is omitted.
type DJ struct {
	Contact
	Phone     Text `json:"phone" form:"phone" validate:"min=10"`
	EventType Text `json:"eventType" form:"eventType" validate:"min=2"`
	Date      Text `json:"date" form:"date" validate:"required"`
	Details   Text `json:"details" form:"details"`
}

// Kind implements Request.
func (*DJ) Kind() Kind { return KindDJ }

// AI is an AI consulting enquiry.
type AI struct {
	Contact
	Company  Text `json:"company" form:"company"`
	Role     Text `json:"role" form:"role"`
	Interest Text `json:"interest" form:"interest" validate:"required"`
	Message  Text `json:"message" form:"message" validate:"min=10"`
}

// Kind implements Request.
func (*AI) Kind() Kind { return KindAI }

// Travel is a travel planning request assembled by the travel wizard.
type Travel struct {
	Contact
	Destination Text `json:"destination" form:"destination" validate:"min=2"`
	TravelDates Text `json:"travelDates" form:"travelDates" validate:"min=2"`
	Budget      Text `json:"budget" form:"budget" validate:"oneof=budget mid luxury"`
	Travelers   Text `json:"travelers" form:"travelers" validate:"positive"`
	Interests   Text `json:"interests" form:"interests" validate:"min=2"`
}

// Kind implements Request.
func (*Travel) Kind() Kind { return KindTravel }

// Known reports whether k is one of the defined kinds.
func (k Kind) Known() bool {
	return k == KindDJ || k == KindAI || k == KindTravel
}

// New returns an empty request of kind k. Empty and unrecognized kinds
// mean KindDJ.
func New(k Kind) Request {
	switch k {
	case KindAI:
		return &AI{}
	case KindTravel:
		return &Travel{}
	default:
		return &DJ{}
	}
}

// DecodeKind returns the raw "type" field of a JSON submission.
func DecodeKind(data []byte) (Kind, error) {
	var envelope struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("decode booking: %w", err)
	}
	return envelope.Type, nil
}

// Decode parses a JSON submission into the request type named by its
// "type" field, falling back to a DJ booking.
func Decode(data []byte) (Request, error) {
	kind, err := DecodeKind(data)
	if err != nil {
		return nil, err
	}
	req := New(kind)
	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("decode %s booking: %w", req.Kind(), err)
	}
	return req, nil
}

// RequireContact reports ErrMissingContact when the name or email is blank.
// It is the only check applied to API submissions.
func RequireContact(req Request) error {
	c := req.ContactInfo()
	if c.Name.Blank() || c.Email.Blank() {
		return ErrMissingContact
	}
	return nil
}

// Text is a form field that also accepts JSON numbers, so clients may send
// "travelers": 2 as well as "travelers": "2".
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("booking: expected string or number, got %s", b)
	}
	*t = Text(n.String())
	return nil
}

// String returns the trimmed value.
func (t Text) String() string { return strings.TrimSpace(string(t)) }

// Blank reports whether the field is empty after trimming.
func (t Text) Blank() bool { return t.String() == "" }

// Int parses the field as an integer.
func (t Text) Int() (int, error) { return strconv.Atoi(t.String()) }
