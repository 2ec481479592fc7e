package push

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mugishapc/bvoice/internal/mocks"
)

func strPtr(s string) *string { return &s }

func TestNotifyWithoutSubscriptionIsNoop(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	provider := new(mocks.PushProviderMock)
	userRepo.On("GetPushSubscription", mock.Anything, 4).Return(nil, nil).Once()

	NewDispatcher(userRepo, provider, 0).Notify(context.Background(), 4, "t", "b", "/chats")

	provider.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	userRepo.AssertExpectations(t)
}

func TestNotifySendsStoredSubscription(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	provider := new(mocks.PushProviderMock)
	subscription := `{"endpoint":"https://push.example/abc","keys":{"p256dh":"k","auth":"a"}}`
	userRepo.On("GetPushSubscription", mock.Anything, 4).Return(strPtr(subscription), nil).Once()

	var payload []byte
	provider.On("Send", mock.Anything, subscription, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(2).([]byte)
	}).Return(nil).Once()

	NewDispatcher(userRepo, provider, 0).Notify(context.Background(), 4, "New message from alice", "hi", "/chats")

	var got struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		URL   string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(payload, &got))
	require.Equal(t, "New message from alice", got.Title)
	require.Equal(t, "hi", got.Body)
	require.Equal(t, "/chats", got.URL)
	provider.AssertExpectations(t)
}

func TestNotifyClearsExpiredSubscription(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	provider := new(mocks.PushProviderMock)
	userRepo.On("GetPushSubscription", mock.Anything, 4).Return(strPtr(`{"endpoint":"gone"}`), nil).Once()
	provider.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(ErrSubscriptionExpired).Once()
	userRepo.On("ClearPushSubscription", mock.Anything, 4).Return(nil).Once()

	dispatcher := NewDispatcher(userRepo, provider, 0)
	dispatcher.Notify(context.Background(), 4, "t", "b", "")
	userRepo.AssertExpectations(t)

	// Once cleared, the next notify is a no-op.
	userRepo.On("GetPushSubscription", mock.Anything, 4).Return(nil, nil).Once()
	dispatcher.Notify(context.Background(), 4, "t", "b", "")
	provider.AssertNumberOfCalls(t, "Send", 1)
}

func TestNotifySwallowsTransientErrors(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	provider := new(mocks.PushProviderMock)
	userRepo.On("GetPushSubscription", mock.Anything, 4).Return(strPtr(`{"endpoint":"x"}`), nil).Once()
	provider.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("503 from push service")).Once()

	NewDispatcher(userRepo, provider, 0).Notify(context.Background(), 4, "t", "b", "")

	// Subscription stays put for the next attempt.
	userRepo.AssertNotCalled(t, "ClearPushSubscription", mock.Anything, mock.Anything)
}
