package blogkit

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrInvalidEmail is returned for subscription addresses that fail validation.
var ErrInvalidEmail = errors.New("blogkit: invalid email address")

// SubscriberStore records newsletter sign-ups. Sending mail is left to
// whatever reads the table.
type SubscriberStore interface {
	// AddSubscriber stores email. An address already present, in any case,
	// returns ErrDuplicateID.
	AddSubscriber(ctx context.Context, email string) error
	CountSubscribers(ctx context.Context) (int, error)
}

var _ SubscriberStore = (*Store)(nil)

type subscriber struct {
	Email string `validate:"required,email,max=254"`
}

// NormalizeEmail trims and lower-cases email and checks it is a plausible
// address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Struct(subscriber{Email: email}); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (s *Store) AddSubscriber(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subscribers (email, created) VALUES (?, ?)`,
		email, s.now().UTC().Format(dateLayout))
	return mapWriteErr(err)
}

func (s *Store) CountSubscribers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers`).Scan(&n)
	return n, err
}

type subscribeRequest struct {
	Email string `json:"email" form:"email"`
}

type subscribeResponse struct {
	Subscribed bool   `json:"subscribed"`
	Already    bool   `json:"already,omitempty"`
	Message    string `json:"message"`
}

// handleSubscribe signs an address up for the newsletter. Subscribing twice
// is not an error for the visitor.
func (a *App) handleSubscribe(c echo.Context) error {
	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	err := a.Subscribers.AddSubscriber(c.Request().Context(), req.Email)
	switch {
	case err == nil:
		a.Logger.Info("blogkit: new subscriber")
		return c.JSON(http.StatusCreated, subscribeResponse{Subscribed: true, Message: "Thanks for subscribing!"})
	case errors.Is(err, ErrDuplicateID):
		return c.JSON(http.StatusOK, subscribeResponse{Subscribed: true, Already: true, Message: "You are already subscribed."})
	case errors.Is(err, ErrInvalidEmail):
		return c.JSON(http.StatusUnprocessableEntity, subscribeResponse{Message: "Please enter a valid email address."})
	}
	a.Logger.Error("blogkit: subscribe", "err", err)
	return c.JSON(http.StatusInternalServerError, subscribeResponse{Message: "Something went wrong. Please try again."})
}
