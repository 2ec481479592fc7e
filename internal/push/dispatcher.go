package push

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/mugishapc/bvoice/internal/observability"
	"github.com/mugishapc/bvoice/internal/repositories"
)

// notification is the payload the service worker displays.
type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Dispatcher sends best-effort push notifications. Delivery failures never
// surface to the message-send path: terminal ones clear the stored
// subscription, everything else is logged and swallowed.
type Dispatcher struct {
	userRepo repositories.UserRepository
	provider Provider
	timeout  time.Duration
}

// NewDispatcher constructs a Dispatcher. timeout bounds each delivery; zero
// means the caller's context rules.
func NewDispatcher(userRepo repositories.UserRepository, provider Provider, timeout time.Duration) *Dispatcher {
	return &Dispatcher{userRepo: userRepo, provider: provider, timeout: timeout}
}

// Notify delivers a notification to the user's stored subscription. No-op
// when none is stored.
func (d *Dispatcher) Notify(ctx context.Context, userID int, title, body, link string) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	subscription, err := d.userRepo.GetPushSubscription(ctx, userID)
	if err != nil {
		log.Printf("push lookup failed user=%d: %v", userID, err)
		return
	}
	if subscription == nil || *subscription == "" {
		return
	}

	payload, err := json.Marshal(notification{Title: title, Body: body, URL: link})
	if err != nil {
		log.Printf("push payload marshal failed: %v", err)
		return
	}

	err = d.provider.Send(ctx, *subscription, payload)
	switch {
	case err == nil:
		observability.IncPush("ok")
	case errors.Is(err, ErrSubscriptionExpired):
		// Self-healing: the only place subscriptions are invalidated
		// automatically.
		observability.IncPush("expired")
		log.Printf("push subscription expired user=%d, clearing", userID)
		if err := d.userRepo.ClearPushSubscription(ctx, userID); err != nil {
			log.Printf("clear push subscription failed user=%d: %v", userID, err)
		}
	default:
		observability.IncPush("error")
		log.Printf("push delivery failed user=%d: %v", userID, err)
	}
}
