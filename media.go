package blogkit

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogkit/assets"
)

// handleAssetUpload stores the multipart "file" field. The kind comes from
// the "kind" field or, when absent, from the part's declared content type.
// Editor paste and drag uploads ask for JSON and insert the returned URL.
func (a *App) handleAssetUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return a.uploadFailed(c, http.StatusBadRequest, "No file provided.")
	}

	var kind assets.Kind
	if k := c.FormValue("kind"); k != "" {
		if kind, err = assets.ParseKind(k); err != nil {
			return a.uploadFailed(c, http.StatusBadRequest, "Unknown media kind.")
		}
	} else {
		var ok bool
		if kind, ok = assets.DetectKind(fh.Header.Get(echo.HeaderContentType)); !ok {
			return a.uploadFailed(c, http.StatusUnsupportedMediaType, "Only images and videos can be uploaded.")
		}
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	asset, err := a.Assets.Upload(c.Request().Context(), kind, fh.Filename, src, fh.Size)
	switch {
	case errors.Is(err, assets.ErrTooLarge):
		return a.uploadFailed(c, http.StatusRequestEntityTooLarge, "File too large.")
	case errors.Is(err, assets.ErrUnsupported):
		return a.uploadFailed(c, http.StatusUnsupportedMediaType, "The file is not a supported "+string(kind)+".")
	case err != nil:
		a.Logger.Error("blogkit: upload", "file", fh.Filename, "err", err)
		return a.uploadFailed(c, http.StatusInternalServerError, "Upload failed.")
	}

	a.Logger.Info("blogkit: uploaded asset", "name", asset.Name, "kind", asset.Kind, "size", asset.Size)
	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, asset)
	}
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape("Uploaded "+asset.Name+"."))
}

func (a *App) uploadFailed(c echo.Context, code int, msg string) error {
	if wantsJSON(c) {
		return c.JSON(code, map[string]string{"error": msg})
	}
	return a.renderAdminDashboard(c, code, "", msg)
}

func (a *App) handleAssetDelete(c echo.Context) error {
	kind, err := assets.ParseKind(c.Param("kind"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	name := c.Param("name")
	if !assets.ValidName(name) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return a.confirmDelete(c, "asset:"+string(kind)+"/"+name, name, func(ctx context.Context) error {
		return a.Assets.Delete(ctx, kind, name)
	})
}
