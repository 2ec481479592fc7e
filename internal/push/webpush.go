package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrSubscriptionExpired marks a terminal delivery failure: the push service
// reported the subscription permanently gone.
var ErrSubscriptionExpired = errors.New("push subscription expired")

// Provider delivers a payload to one stored subscription blob.
type Provider interface {
	Send(ctx context.Context, subscription string, payload []byte) error
}

// WebPushProvider sends Web Push messages signed with VAPID keys. The
// subscription blob is passed through to the push service unmodified.
type WebPushProvider struct {
	options webpush.Options
}

// NewWebPushProvider constructs the provider.
func NewWebPushProvider(subject, publicKey, privateKey string) *WebPushProvider {
	return &WebPushProvider{
		options: webpush.Options{
			Subscriber:      subject,
			VAPIDPublicKey:  publicKey,
			VAPIDPrivateKey: privateKey,
			TTL:             60,
		},
	}
}

// Send delivers the payload. A 404/410 response means the subscription is
// permanently invalid and maps to ErrSubscriptionExpired.
func (p *WebPushProvider) Send(ctx context.Context, subscription string, payload []byte) error {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(subscription), &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}

	options := p.options
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &sub, &options)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionExpired
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}
