package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type PushProviderMock struct {
	mock.Mock
}

func (m *PushProviderMock) Send(ctx context.Context, subscription string, payload []byte) error {
	args := m.Called(ctx, subscription, payload)
	return args.Error(0)
}
