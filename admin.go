package blogkit

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogkit/assets"
	"github.com/eringen/blogkit/markdown"
)

const categoryCompletions = 8

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(LoginPage{Site: a.Config.Site, CSRF: CsrfToken(c)}))
	}
	return a.renderAdminDashboard(c, http.StatusOK, c.QueryParam("msg"), "")
}

// handleAdminLogin checks the shared admin password. This is a single-user
// gate, not an account system: there is no per-user identity.
func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.Admin.Password)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("blogkit: failed admin login", "ip", ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(LoginPage{
		Site:   a.Config.Site,
		CSRF:   CsrfToken(c),
		Failed: true,
	}))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminNew(c echo.Context) error {
	return a.renderEditor(c, http.StatusOK, Post{}, "", true, "")
}

func (a *App) handleAdminPost(c echo.Context) error {
	post, err := a.Store.GetPost(c.Request().Context(), c.Param("slug"))
	if errors.Is(err, ErrNotFound) {
		return a.renderNotFound(c, "That post does not exist.")
	}
	if err != nil {
		return err
	}
	return a.renderEditor(c, http.StatusOK, post, post.ID, false, "")
}

// handleAdminSave creates a post, or updates the post named by the "original"
// field. A slug different from the original renames the post.
func (a *App) handleAdminSave(c echo.Context) error {
	ctx := c.Request().Context()
	original := strings.TrimSpace(c.FormValue("original"))
	post := Post{
		ID:      strings.TrimSpace(c.FormValue("slug")),
		Title:   strings.TrimSpace(c.FormValue("title")),
		Tag:     strings.TrimSpace(c.FormValue("tag")),
		Summary: strings.TrimSpace(c.FormValue("summary")),
		Content: c.FormValue("content"),
		Image:   strings.TrimSpace(c.FormValue("image")),
		Series:  strings.TrimSpace(c.FormValue("series")),
	}
	isNew := original == ""
	if post.ID == "" {
		post.ID = Slugify(post.Title)
	}

	var problem string
	switch {
	case post.Title == "":
		problem = "Title is required."
	case post.ID == "":
		problem = "Slug is required. Add a title or slug."
	case !ValidSlug(post.ID):
		problem = "Slug may only contain lowercase letters, digits, '-' and '_'."
	case strings.TrimSpace(post.Content) == "":
		problem = "Content is required."
	}
	if problem != "" {
		return a.renderEditor(c, http.StatusUnprocessableEntity, post, original, isNew, problem)
	}

	var err error
	if isNew {
		err = a.Store.CreatePost(ctx, post)
	} else {
		err = a.Store.UpdatePost(ctx, original, PostPatch{
			ID:      &post.ID,
			Title:   &post.Title,
			Tag:     &post.Tag,
			Summary: &post.Summary,
			Content: &post.Content,
			Image:   &post.Image,
			Series:  &post.Series,
		})
	}
	switch {
	case errors.Is(err, ErrDuplicateID):
		return a.renderEditor(c, http.StatusConflict, post, original, isNew,
			fmt.Sprintf("A post with slug %q already exists.", post.ID))
	case errors.Is(err, ErrInvalidPost):
		return a.renderEditor(c, http.StatusUnprocessableEntity, post, original, isNew, validationMessage(err))
	case errors.Is(err, ErrNotFound):
		return a.renderEditor(c, http.StatusNotFound, post, original, isNew,
			"The post you were editing no longer exists.")
	case err != nil:
		a.Logger.Error("blogkit: save post", "post", post.ID, "err", err)
		return a.renderEditor(c, http.StatusInternalServerError, post, original, isNew,
			"Could not save the post. Nothing was changed.")
	}

	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape("Saved “"+post.Title+"”."))
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), ErrInvalidPost.Error()+": ")
	if msg == "" {
		return "The post is invalid."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}

func (a *App) handleAdminDelete(c echo.Context) error {
	id := c.Param("slug")
	return a.confirmDelete(c, "post:"+id, "“"+id+"”", func(ctx context.Context) error {
		return a.Store.DeletePost(ctx, id)
	})
}

func (a *App) handleAdminDeleteAll(c echo.Context) error {
	var n int
	return a.confirmDelete(c, "posts:all", "every post", func(ctx context.Context) error {
		var err error
		n, err = a.Store.DeleteAllPosts(ctx)
		if err == nil {
			a.Logger.Info("blogkit: deleted all posts", "count", n)
		}
		return err
	})
}

// selectionTarget is the guard target for deleting ids together. Order and
// duplicates in the form do not matter.
func selectionTarget(ids []string) string {
	return "selected:" + strings.Join(ids, ",")
}

// selectedIDs recovers the ids of a selection target armed by
// handleAdminDeleteSelected.
func selectedIDs(target string) []string {
	rest, ok := strings.CutPrefix(target, "selected:")
	if !ok || rest == "" {
		return nil
	}
	return strings.Split(rest, ",")
}

func (a *App) handleAdminDeleteSelected(c echo.Context) error {
	params, err := c.FormParams()
	if err != nil {
		return err
	}
	var ids []string
	for _, id := range params["ids"] {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) == 0 {
		const msg = "Select at least one post to delete."
		if wantsJSON(c) {
			return c.JSON(http.StatusUnprocessableEntity, deleteResult{Error: msg})
		}
		return a.renderAdminDashboard(c, http.StatusUnprocessableEntity, "", msg)
	}

	what := fmt.Sprintf("%d selected posts", len(ids))
	if len(ids) == 1 {
		what = "1 selected post"
	}
	return a.confirmDelete(c, selectionTarget(ids), what, func(ctx context.Context) error {
		n, err := a.Store.DeletePosts(ctx, ids)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		a.Logger.Info("blogkit: deleted selected posts", "count", n, "requested", len(ids))
		return nil
	})
}

// deleteResult is the JSON answer to a delete request.
type deleteResult struct {
	Armed   bool   `json:"armed"`
	Deleted bool   `json:"deleted"`
	Target  string `json:"target"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// confirmDelete arms target on the first request and runs del on a second
// request for the same target inside the confirmation window. A failed
// delete is reported to the admin and never retried.
func (a *App) confirmDelete(c echo.Context, target, what string, del func(context.Context) error) error {
	res := deleteResult{Target: target}
	if !a.guard.Request(adminOwner(c), target) {
		res.Armed = true
		res.Message = fmt.Sprintf("Delete %s? Click delete again within %s to confirm.", what, a.guard.Window())
		if wantsJSON(c) {
			return c.JSON(http.StatusOK, res)
		}
		return a.renderAdminDashboard(c, http.StatusOK, res.Message, "")
	}

	code := http.StatusOK
	if err := del(c.Request().Context()); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, assets.ErrNotFound) {
			code = http.StatusNotFound
			res.Error = fmt.Sprintf("Could not delete %s: it no longer exists.", what)
		} else {
			code = http.StatusInternalServerError
			res.Error = fmt.Sprintf("Could not delete %s. Nothing was removed.", what)
			a.Logger.Error("blogkit: delete failed", "target", target, "err", err)
		}
	} else {
		res.Deleted = true
		res.Message = fmt.Sprintf("Deleted %s.", what)
		a.Cache.Invalidate()
	}
	if wantsJSON(c) {
		return c.JSON(code, res)
	}
	return a.renderAdminDashboard(c, code, res.Message, res.Error)
}

type previewRequest struct {
	Content string `json:"content" form:"content"`
}

type previewResponse struct {
	HTML        string `json:"html"`
	Words       int    `json:"words"`
	ReadingTime int    `json:"readingTime"`
}

// handleAdminPreview renders unsaved markdown exactly as the published page
// would.
func (a *App) handleAdminPreview(c echo.Context) error {
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, previewResponse{
		HTML:        a.Renderer.Render(req.Content),
		Words:       markdown.WordCount(req.Content),
		ReadingTime: markdown.ReadingTime(req.Content),
	})
}

func (a *App) handleAdminCategories(c echo.Context) error {
	names, err := a.categoryNames(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CategorySuggestions(c.QueryParam("q"), names, categoryCompletions))
}

// categoryNames lists the configured sections followed by any other tag
// already used by a stored post.
func (a *App) categoryNames(ctx context.Context) ([]string, error) {
	used, err := a.Store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return mergeNames(a.Config.Categories, used), nil
}

func (a *App) renderEditor(c echo.Context, code int, post Post, original string, isNew bool, problem string) error {
	names, err := a.categoryNames(c.Request().Context())
	if err != nil {
		a.Logger.Warn("blogkit: list categories", "err", err)
		names = mergeNames(a.Config.Categories, nil)
	}
	return RenderStatus(c, code, a.Views.AdminEditor(EditorPage{
		Site:       a.Config.Site,
		CSRF:       CsrfToken(c),
		Post:       post,
		Original:   original,
		IsNew:      isNew,
		Categories: names,
		Error:      problem,
	}))
}

// renderAdminDashboard shows every stored post and asset. Listing failures are
// shown inline next to msg and problem rather than replacing the page.
func (a *App) renderAdminDashboard(c echo.Context, code int, msg, problem string) error {
	ctx := c.Request().Context()
	page := AdminPage{
		Site:    a.Config.Site,
		CSRF:    CsrfToken(c),
		Message: msg,
	}
	var problems []string
	if problem != "" {
		problems = append(problems, problem)
	}

	posts, err := a.Store.ListPosts(ctx, ListOptions{Lean: true})
	if err != nil {
		a.Logger.Error("blogkit: dashboard posts", "err", err)
		problems = append(problems, "Could not load posts.")
	}
	page.Posts = posts

	if page.Images, err = a.Assets.List(ctx, assets.KindImage); err != nil {
		a.Logger.Error("blogkit: dashboard images", "err", err)
		problems = append(problems, "Could not load images.")
	}
	if page.Videos, err = a.Assets.List(ctx, assets.KindVideo); err != nil {
		a.Logger.Error("blogkit: dashboard videos", "err", err)
		problems = append(problems, "Could not load videos.")
	}
	if page.Categories, err = a.categoryNames(ctx); err != nil {
		page.Categories = mergeNames(a.Config.Categories, nil)
	}

	page.Subscribers = -1
	if a.Subscribers != nil {
		if page.Subscribers, err = a.Subscribers.CountSubscribers(ctx); err != nil {
			a.Logger.Error("blogkit: dashboard subscribers", "err", err)
			problems = append(problems, "Could not count subscribers.")
			page.Subscribers = -1
		}
	}

	page.Error = strings.Join(problems, " ")
	page.Armed, _ = a.guard.Armed(adminOwner(c))
	page.Selected = selectedIDs(page.Armed)
	return RenderStatus(c, code, a.Views.AdminDashboard(page))
}
