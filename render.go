package folio

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// apiError is the JSON body of every failed API call.
type apiError struct {
	Error           string   `json:"error"`
	Details         string   `json:"details,omitempty"`
	Required        []string `json:"required,omitempty"`
	ValidCategories []string `json:"validCategories,omitempty"`
}

func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, apiError{Error: msg})
}

// jsonFailure answers 500 with the underlying error in details.
func jsonFailure(c echo.Context, msg string, err error) error {
	return c.JSON(http.StatusInternalServerError, apiError{Error: msg, Details: err.Error()})
}
