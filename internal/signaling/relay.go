package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mugishapc/bvoice/internal/models"
	"github.com/mugishapc/bvoice/internal/repositories"
)

// RoomPublisher delivers an event to a named room. Satisfied by the ws hub.
type RoomPublisher interface {
	Publish(room, event string, payload any)
}

// Relay forwards call lifecycle events and WebRTC negotiation payloads to the
// recipient's private room. It keeps no call state and persists nothing; an
// offline recipient simply never sees the event.
type Relay struct {
	rooms    RoomPublisher
	userRepo repositories.UserRepository
}

// NewRelay constructs a Relay. userRepo resolves caller display names.
func NewRelay(rooms RoomPublisher, userRepo repositories.UserRepository) *Relay {
	return &Relay{rooms: rooms, userRepo: userRepo}
}

// CallRequest announces an incoming call, resolving the caller's name for
// the ringing UI.
func (r *Relay) CallRequest(from, to int) {
	event := models.CallRequestEvent{From: from}
	if r.userRepo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if caller, err := r.userRepo.GetUser(ctx, from); err == nil {
			event.FromName = caller.Username
		}
	}
	r.rooms.Publish(userRoom(to), "call_request", event)
}

// CallAccepted notifies the original caller that the call was picked up.
func (r *Relay) CallAccepted(from, to int) {
	r.rooms.Publish(userRoom(to), "call_accepted", models.CallAcceptedEvent{From: from})
}

// CallRejected notifies the original caller of a rejection.
func (r *Relay) CallRejected(to int) {
	r.rooms.Publish(userRoom(to), "call_rejected", struct{}{})
}

// CallEnded notifies the peer that the call is over.
func (r *Relay) CallEnded(to int) {
	r.rooms.Publish(userRoom(to), "call_ended", struct{}{})
}

// Offer forwards an SDP offer, stamped with the caller identity.
func (r *Relay) Offer(from, to int, sdp json.RawMessage) {
	r.rooms.Publish(userRoom(to), "offer", models.OfferEvent{Offer: sdp, From: from})
}

// Answer forwards an SDP answer.
func (r *Relay) Answer(from, to int, sdp json.RawMessage) {
	r.rooms.Publish(userRoom(to), "answer", models.AnswerEvent{Answer: sdp, From: from})
}

// IceCandidate forwards one ICE candidate.
func (r *Relay) IceCandidate(from, to int, candidate json.RawMessage) {
	r.rooms.Publish(userRoom(to), "ice_candidate", models.IceCandidateEvent{Candidate: candidate, From: from})
}

func userRoom(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}
