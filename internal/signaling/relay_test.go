package signaling

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mugishapc/bvoice/internal/mocks"
	"github.com/mugishapc/bvoice/internal/models"
)

type publishedEvent struct {
	room    string
	event   string
	payload any
}

type publisherFake struct {
	events []publishedEvent
}

func (p *publisherFake) Publish(room, event string, payload any) {
	p.events = append(p.events, publishedEvent{room: room, event: event, payload: payload})
}

func TestCallRequestResolvesCallerName(t *testing.T) {
	rooms := &publisherFake{}
	userRepo := new(mocks.UserRepositoryMock)
	userRepo.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil).Once()

	relay := NewRelay(rooms, userRepo)
	relay.CallRequest(1, 2)

	require.Len(t, rooms.events, 1)
	require.Equal(t, "user:2", rooms.events[0].room)
	require.Equal(t, "call_request", rooms.events[0].event)
	event := rooms.events[0].payload.(models.CallRequestEvent)
	require.Equal(t, 1, event.From)
	require.Equal(t, "alice", event.FromName)
	userRepo.AssertExpectations(t)
}

func TestCallRequestRingsWithoutNameOnLookupFailure(t *testing.T) {
	rooms := &publisherFake{}
	userRepo := new(mocks.UserRepositoryMock)
	userRepo.On("GetUser", mock.Anything, 1).Return(nil, errors.New("db down")).Once()

	relay := NewRelay(rooms, userRepo)
	relay.CallRequest(1, 2)

	require.Len(t, rooms.events, 1)
	event := rooms.events[0].payload.(models.CallRequestEvent)
	require.Equal(t, 1, event.From)
	require.Empty(t, event.FromName)
}

func TestCallLifecycleTargetsRecipientRoom(t *testing.T) {
	rooms := &publisherFake{}
	relay := NewRelay(rooms, nil)

	relay.CallAccepted(2, 1)
	relay.CallRejected(1)
	relay.CallEnded(2)

	require.Len(t, rooms.events, 3)
	require.Equal(t, "user:1", rooms.events[0].room)
	require.Equal(t, "call_accepted", rooms.events[0].event)
	require.Equal(t, 2, rooms.events[0].payload.(models.CallAcceptedEvent).From)
	require.Equal(t, "user:1", rooms.events[1].room)
	require.Equal(t, "call_rejected", rooms.events[1].event)
	require.Equal(t, "user:2", rooms.events[2].room)
	require.Equal(t, "call_ended", rooms.events[2].event)
}

func TestNegotiationPayloadsPassThroughUntouched(t *testing.T) {
	rooms := &publisherFake{}
	relay := NewRelay(rooms, nil)

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	answer := json.RawMessage(`{"type":"answer","sdp":"v=0"}`)
	candidate := json.RawMessage(`{"candidate":"candidate:0 1 UDP"}`)

	relay.Offer(1, 2, offer)
	relay.Answer(2, 1, answer)
	relay.IceCandidate(1, 2, candidate)

	require.Len(t, rooms.events, 3)

	got := rooms.events[0].payload.(models.OfferEvent)
	require.Equal(t, "user:2", rooms.events[0].room)
	require.Equal(t, 1, got.From)
	require.JSONEq(t, string(offer), string(got.Offer))

	ans := rooms.events[1].payload.(models.AnswerEvent)
	require.Equal(t, "user:1", rooms.events[1].room)
	require.Equal(t, 2, ans.From)
	require.JSONEq(t, string(answer), string(ans.Answer))

	ice := rooms.events[2].payload.(models.IceCandidateEvent)
	require.Equal(t, "user:2", rooms.events[2].room)
	require.JSONEq(t, string(candidate), string(ice.Candidate))
}
