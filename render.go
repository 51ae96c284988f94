package blogkit

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
// The component renders into a buffer first so a failing template yields a
// clean error response rather than a truncated page.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)
	if err := cmp.Render(c.Request().Context(), buf); err != nil {
		return err
	}
	return c.HTMLBlob(code, buf.Bytes())
}

func (a *App) renderNotFound(c echo.Context, msg string) error {
	return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(ErrorPage{
		Site:    a.Config.Site,
		Status:  http.StatusNotFound,
		Message: msg,
	}))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, ErrNotFound) {
		err = echo.NewHTTPError(http.StatusNotFound, "not found").SetInternal(err)
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	if wantsJSON(c) || c.Request().Method != http.MethodGet {
		if code >= 500 {
			a.Logger.Error("blogkit: server error", "uri", c.Request().RequestURI, "err", err)
		}
		a.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}

	switch {
	case code == http.StatusNotFound:
		_ = a.renderNotFound(c, "")
	case code >= 500:
		a.Logger.Error("blogkit: server error", "uri", c.Request().RequestURI, "err", err)
		_ = RenderStatus(c, code, a.Views.ServerError(ErrorPage{
			Site:   a.Config.Site,
			Status: code,
		}))
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}
