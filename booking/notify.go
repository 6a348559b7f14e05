package booking

import (
	"fmt"
	"strings"

	g "github.com/maragudk/gomponents"
	h "github.com/maragudk/gomponents/html"
)

// Notification is the email sent to the site owner for one request.
type Notification struct {
	Subject string
	HTML    string
	ReplyTo string
}

// Notify renders the owner notification for req. Field values are HTML-escaped.
func Notify(req Request) (Notification, error) {
	var (
		subject string
		heading string
		rows    []g.Node
	)
	c := req.ContactInfo()
	switch r := req.(type) {
	case *AI:
		subject = "AI Consultation Request: " + c.Name.String()
		heading = "New AI Consultation Request"
		rows = []g.Node{
			field("Name", c.Name.String()),
			field("Email", c.Email.String()),
			field("Company", orNA(r.Company)),
			field("Role", orNA(r.Role)),
			field("Interest", r.Interest.String()),
		}
		rows = append(rows, block("Message", r.Message.String())...)
	case *Travel:
		subject = "Travel Planning Request: " + c.Name.String()
		heading = "New Travel Planning Request"
		rows = []g.Node{
			field("Name", c.Name.String()),
			field("Email", c.Email.String()),
			field("Destination", r.Destination.String()),
			field("Dates", r.TravelDates.String()),
			field("Budget", r.Budget.String()),
			field("Travelers", r.Travelers.String()),
		}
		rows = append(rows, block("Interests", r.Interests.String())...)
	case *DJ:
		subject = fmt.Sprintf("New DJ Booking Request: %s - %s", r.EventType.String(), c.Name.String())
		heading = "New DJ Booking Request"
		rows = []g.Node{
			field("Name", c.Name.String()),
			field("Email", c.Email.String()),
			field("Phone", r.Phone.String()),
			field("Event Type", r.EventType.String()),
			field("Date", r.Date.String()),
			field("Details", orNA(r.Details)),
		}
	default:
		return Notification{}, fmt.Errorf("%w: %T", ErrUnknownKind, req)
	}

	var b strings.Builder
	body := h.Div(append([]g.Node{h.H1(g.Text(heading))}, rows...)...)
	if err := body.Render(&b); err != nil {
		return Notification{}, fmt.Errorf("render %s notification: %w", req.Kind(), err)
	}
	return Notification{Subject: subject, HTML: b.String(), ReplyTo: c.Email.String()}, nil
}

func field(label, value string) g.Node {
	return h.P(h.Strong(g.Text(label+":")), g.Text(" "+value))
}

func block(label, value string) []g.Node {
	return []g.Node{
		h.P(h.Strong(g.Text(label + ":"))),
		h.P(g.Text(value)),
	}
}

func orNA(t Text) string {
	if t.Blank() {
		return "N/A"
	}
	return t.String()
}
