package folio

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kabuchi/folio/booking"
	"github.com/kabuchi/folio/mailer"
	"github.com/kabuchi/folio/post"
	"github.com/kabuchi/folio/views"
	"github.com/kabuchi/folio/wizard"
)

const maxBookingBody = 64 << 10

type bookingResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// notify emails the owner about req. Delivery is best effort: failures are
// logged and never reach the visitor.
func (a *App) notify(ctx context.Context, req booking.Request) {
	log := a.Log.With().Str("kind", string(req.Kind())).Logger()
	if a.Mailer == nil {
		log.Warn().Msg("email relay not configured, notification skipped")
		return
	}
	n, err := booking.Notify(req)
	if err != nil {
		log.Error().Err(err).Msg("render notification")
		return
	}
	err = a.Mailer.Send(ctx, mailer.Message{
		From:    a.Config.MailFrom,
		To:      []string{a.Config.NotifyEmail},
		ReplyTo: n.ReplyTo,
		Subject: n.Subject,
		HTML:    n.HTML,
	})
	if err != nil {
		log.Error().Err(err).Str("subject", n.Subject).Msg("send notification")
		return
	}
	log.Info().Str("subject", n.Subject).Msg("notification sent")
}

// handleBooking accepts a JSON booking of any kind. Only name and email are
// required here; the page forms apply the full rules.
func (a *App) handleBooking(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBookingBody))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	req, err := booking.Decode(body)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid JSON body")
	}
	if kind, _ := booking.DecodeKind(body); kind != "" && !kind.Known() {
		a.Log.Warn().Str("type", string(kind)).Msg("unrecognized booking type, handling as dj")
	}
	if err := booking.RequireContact(req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Missing required fields")
	}

	a.notify(c.Request().Context(), req)
	return c.JSON(http.StatusOK, bookingResponse{Success: true, Message: "Booking request received"})
}

func formText(c echo.Context, name string) booking.Text {
	return booking.Text(c.FormValue(name))
}

func formValues(c echo.Context, names ...string) map[string]string {
	values := make(map[string]string, len(names))
	for _, n := range names {
		values[n] = c.FormValue(n)
	}
	return values
}

func contactFromForm(c echo.Context) booking.Contact {
	return booking.Contact{Name: formText(c, "name"), Email: formText(c, "email")}
}

// submitForm validates req and notifies the owner. The returned state is
// ready to render: field errors on invalid input, Sent otherwise.
func (a *App) submitForm(c echo.Context, req booking.Request, values map[string]string) (views.FormState, int) {
	form := views.FormState{Values: values}
	if err := booking.Validate(req); err != nil {
		var fe booking.FieldErrors
		if errors.As(err, &fe) {
			form.Errors = fe
			return form, http.StatusUnprocessableEntity
		}
		a.Log.Error().Err(err).Str("kind", string(req.Kind())).Msg("validate form")
		form.Failure = views.FailedMessage
		return form, http.StatusInternalServerError
	}
	a.notify(c.Request().Context(), req)
	return views.FormState{Sent: true}, http.StatusOK
}

func (a *App) handleDJBooking(c echo.Context) error {
	req := &booking.DJ{
		Contact:   contactFromForm(c),
		Phone:     formText(c, "phone"),
		EventType: formText(c, "eventType"),
		Date:      formText(c, "date"),
		Details:   formText(c, "details"),
	}
	form, code := a.submitForm(c, req, formValues(c, "name", "email", "phone", "eventType", "date", "details"))
	return RenderStatus(c, code, a.Views.DJ(a.site(), form, CsrfToken(c)))
}

func (a *App) handleAIContact(c echo.Context) error {
	req := &booking.AI{
		Contact:  contactFromForm(c),
		Company:  formText(c, "company"),
		Role:     formText(c, "role"),
		Interest: formText(c, "interest"),
		Message:  formText(c, "message"),
	}
	form, code := a.submitForm(c, req, formValues(c, "name", "email", "company", "role", "interest", "message"))
	posts := a.listOrEmpty(c, post.CategoryWork)
	return RenderStatus(c, code, a.Views.AI(a.site(), posts, form, CsrfToken(c)))
}

func wizardFields(c echo.Context) wizard.Fields {
	return wizard.Fields{
		Destination: c.FormValue("destination"),
		TravelDates: c.FormValue("travelDates"),
		Budget:      c.FormValue("budget"),
		Travelers:   c.FormValue("travelers"),
		Interests:   c.FormValue("interests"),
		Name:        c.FormValue("name"),
		Email:       c.FormValue("email"),
	}
}

func wizardValues(f wizard.Fields) map[string]string {
	return map[string]string{
		"destination": f.Destination,
		"travelDates": f.TravelDates,
		"budget":      f.Budget,
		"travelers":   f.Travelers,
		"interests":   f.Interests,
		"name":        f.Name,
		"email":       f.Email,
	}
}

// handleTravelPlan advances the travel wizard. The page posts the current
// step, every collected field and the requested action (next, back or submit).
func (a *App) handleTravelPlan(c echo.Context) error {
	step, _ := strconv.Atoi(c.FormValue("step"))
	wz := wizard.Resume(wizard.Step(step), wizardFields(c))
	form := views.FormState{}

	switch c.FormValue("action") {
	case "back":
		wz.Back()
	case "submit":
		req, err := wz.Submit()
		var fe booking.FieldErrors
		switch {
		case err == nil:
			a.notify(c.Request().Context(), req)
			wz.Reset()
			form.Sent = true
		case errors.Is(err, wizard.ErrNotReady), errors.As(err, &fe):
		default:
			a.Log.Error().Err(err).Msg("submit travel plan")
			form.Failure = views.FailedMessage
		}
	default:
		if err := wz.Next(); errors.Is(err, wizard.ErrLastStep) {
			a.Log.Debug().Msg("travel wizard next on last step")
		}
	}

	if !form.Sent {
		form.Values = wizardValues(wz.Fields())
		form.Errors = wz.Errors()
	}
	posts := a.listOrEmpty(c, post.CategoryTravel)
	return Render(c, a.Views.Travel(a.site(), posts, wz.Step(), form, CsrfToken(c)))
}
