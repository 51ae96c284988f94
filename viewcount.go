package blogkit

import (
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// ViewMarker decides whether a request is the visitor's first view of a post.
// Marking is best effort: two tabs racing can both see a first view.
type ViewMarker interface {
	FirstView(c echo.Context, id string) (bool, error)
}

const (
	visitorSession = "visitor"
	visitorCookie  = "blogkit_vid"
	// maxViewed caps the ids kept in the visitor cookie.
	maxViewed = 50
)

// SessionMarker remembers viewed post ids in a browser-session cookie.
type SessionMarker struct{}

func NewSessionMarker() SessionMarker { return SessionMarker{} }

func (SessionMarker) FirstView(c echo.Context, id string) (bool, error) {
	sess, err := session.Get(visitorSession, c)
	if err != nil {
		return false, err
	}
	viewed, _ := sess.Values["viewed"].([]string)
	if slices.Contains(viewed, id) {
		return false, nil
	}
	viewed = append(viewed, id)
	if len(viewed) > maxViewed {
		viewed = viewed[len(viewed)-maxViewed:]
	}
	sess.Values["viewed"] = viewed
	// MaxAge 0 makes it a browser-session cookie.
	sess.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.Scheme() == "https",
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return false, err
	}
	return true, nil
}

// RedisMarker keeps one key per visitor and post in Redis, so views are
// remembered across browser sessions and app instances.
type RedisMarker struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

func NewRedisMarker(client *redis.Client, ttl time.Duration, secureCookie bool) *RedisMarker {
	return &RedisMarker{client: client, ttl: ttl, secure: secureCookie}
}

func (m *RedisMarker) FirstView(c echo.Context, id string) (bool, error) {
	vid := m.visitorID(c)
	return m.client.SetNX(c.Request().Context(), "blogkit:viewed:"+vid+":"+id, 1, m.ttl).Result()
}

func (m *RedisMarker) visitorID(c echo.Context) string {
	if ck, err := c.Cookie(visitorCookie); err == nil {
		if _, err := uuid.Parse(ck.Value); err == nil {
			return ck.Value
		}
	}
	vid := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     visitorCookie,
		Value:    vid,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
	})
	return vid
}
