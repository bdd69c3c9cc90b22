package app

import (
	"database/sql"
	"time"

	"github.com/fiffu/watchdog/lib/models"
)

type WebsiteView struct {
	ID          uint    `json:"id"`
	URL         string  `json:"url"`
	Online      bool    `json:"online"`
	LastChecked *string `json:"last_checked"`
}

func (view WebsiteView) From(entity models.Website) WebsiteView {
	return WebsiteView{
		ID:          entity.ID,
		URL:         entity.URL,
		Online:      entity.Status,
		LastChecked: isoformat(entity.LastChecked),
	}
}

type UserView struct {
	ID                     uint    `json:"id"`
	Email                  string  `json:"email"`
	IsAdmin                bool    `json:"is_admin"`
	RemainingNotifications int     `json:"remaining_notifications"`
	LastLoginAt            *string `json:"last_login_at"`
}

func (view UserView) From(entity *models.User) UserView {
	return UserView{
		ID:                     entity.ID,
		Email:                  entity.Email,
		IsAdmin:                entity.IsAdmin,
		RemainingNotifications: entity.RemainingNotifications,
		LastLoginAt:            isoformat(entity.LastLoginAt),
	}
}

type SubscriptionView struct {
	ID             uint    `json:"id"`
	UserID         uint    `json:"user_id"`
	WebsiteID      uint    `json:"website_id"`
	LastNotifiedAt *string `json:"last_notified_at"`
}

func (view SubscriptionView) From(entity *models.Subscription) SubscriptionView {
	return SubscriptionView{
		ID:             entity.ID,
		UserID:         entity.UserID,
		WebsiteID:      entity.WebsiteID,
		LastNotifiedAt: isoformat(entity.LastNotifiedAt),
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i, t := range elems {
		var u U
		out[i] = u.From(t)
	}
	return out
}

func isoformat(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.UTC().Format(time.RFC3339)
	return &s
}
