package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/mugishapc/bvoice/internal/models"
	"github.com/mugishapc/bvoice/internal/observability"
	"github.com/mugishapc/bvoice/internal/repositories"
	"github.com/mugishapc/bvoice/internal/signaling"
)

const (
	replyPreviewLen = 50
	pushPreviewLen  = 100

	opTimeout = 5 * time.Second
)

// Notifier dispatches a push notification off the message-send path.
type Notifier interface {
	Notify(ctx context.Context, userID int, title, body, link string)
}

// Router dispatches inbound client events. Persistence always happens before
// any broadcast, so durability is never gated on delivery.
type Router struct {
	hub         *Hub
	messageRepo repositories.MessageRepository
	groupRepo   repositories.GroupRepository
	userRepo    repositories.UserRepository
	relay       *signaling.Relay
	notifier    Notifier
}

// NewRouter wires the event router.
func NewRouter(hub *Hub, messageRepo repositories.MessageRepository, groupRepo repositories.GroupRepository, userRepo repositories.UserRepository, relay *signaling.Relay, notifier Notifier) *Router {
	return &Router{
		hub:         hub,
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		relay:       relay,
		notifier:    notifier,
	}
}

// Handle routes one decoded client event.
func (r *Router) Handle(c *Client, event models.ClientEvent) {
	switch event.Event {
	case "send_message":
		var req sendMessageRequest
		if !decode(c, event.Data, &req) {
			return
		}
		r.handleSendMessage(c, req)
	case "join_group":
		var req joinGroupRequest
		if !decode(c, event.Data, &req) {
			return
		}
		r.handleJoinGroup(c, req)
	case "typing":
		var req typingRequest
		if !decode(c, event.Data, &req) {
			return
		}
		r.handleTyping(c, req)
	case "message_reaction":
		var req reactionRequest
		if !decode(c, event.Data, &req) {
			return
		}
		r.handleReaction(c, req)
	case "call_request":
		var req callRequest
		if !decode(c, event.Data, &req) {
			return
		}
		r.relay.CallRequest(c.UserID, req.To)
	case "call_accepted":
		var req callRequest
		if !decode(c, event.Data, &req) {
			return
		}
		r.relay.CallAccepted(c.UserID, req.To)
	case "call_rejected":
		var req callRequest
		if !decode(c, event.Data, &req) {
			return
		}
		r.relay.CallRejected(req.To)
	case "call_ended":
		var req callRequest
		if !decode(c, event.Data, &req) {
			return
		}
		r.relay.CallEnded(req.To)
	case "offer":
		var req offerRequest
		if !decode(c, event.Data, &req) {
			return
		}
		r.relay.Offer(c.UserID, req.To, req.Offer)
	case "answer":
		var req answerRequest
		if !decode(c, event.Data, &req) {
			return
		}
		r.relay.Answer(c.UserID, req.To, req.Answer)
	case "ice_candidate":
		var req iceCandidateRequest
		if !decode(c, event.Data, &req) {
			return
		}
		r.relay.IceCandidate(c.UserID, req.To, req.Candidate)
	default:
		observability.IncWSEvent("unknown")
	}
}

func (r *Router) handleSendMessage(c *Client, req sendMessageRequest) {
	params := models.NewMessageParams{
		SenderID:    c.UserID,
		ReceiverID:  req.ReceiverID,
		GroupID:     req.GroupID,
		Content:     req.Content,
		MessageType: req.MessageType,
		FilePath:    req.FilePath,
		ReplyToID:   req.ReplyToID,
	}
	if err := params.Validate(); err != nil {
		c.SendEvent("error", models.ErrorEvent{Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if req.GroupID != nil {
		member, err := r.groupRepo.IsMember(ctx, *req.GroupID, c.UserID)
		if err != nil || !member {
			c.SendEvent("error", models.ErrorEvent{Message: "not a group member"})
			return
		}
	}

	// Persist first: a slow broadcast must never delay durability, and a
	// failed persist must never produce a phantom broadcast.
	msg, err := r.messageRepo.CreateMessage(ctx, params)
	if err != nil {
		log.Printf("create message failed sender=%d: %v", c.UserID, err)
		c.SendEvent("error", models.ErrorEvent{Message: "failed to send message"})
		return
	}
	observability.IncMessageSent(messageKind(msg))

	payload := models.MessagePayload{Message: msg, SenderName: c.Username}
	if msg.ReplyToID != nil {
		payload.ReplyTo = r.replyPreview(ctx, *msg.ReplyToID)
	}

	if msg.GroupID != nil {
		r.hub.Publish(GroupRoom(*msg.GroupID), "receive_message", payload)
		return
	}

	r.hub.Publish(UserRoom(*msg.ReceiverID), "receive_message", payload)
	r.hub.Publish(UserRoom(c.UserID), "receive_message", payload)

	if r.notifier != nil {
		// Off the critical path: a slow push provider must not add latency
		// to message delivery.
		receiverID := *msg.ReceiverID
		title := "New message from " + c.Username
		body := models.Preview(msg.Content, pushPreviewLen)
		go func() {
			pushCtx, pushCancel := context.WithTimeout(context.Background(), opTimeout)
			defer pushCancel()
			r.notifier.Notify(pushCtx, receiverID, title, body, "/chats")
		}()
	}
}

func (r *Router) handleJoinGroup(c *Client, req joinGroupRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	member, err := r.groupRepo.IsMember(ctx, req.GroupID, c.UserID)
	if err != nil {
		c.SendEvent("error", models.ErrorEvent{Message: "membership check failed"})
		return
	}
	if !member {
		c.SendEvent("error", models.ErrorEvent{Message: "not a group member"})
		return
	}
	r.hub.JoinRoom(GroupRoom(req.GroupID), c)
}

func (r *Router) handleTyping(c *Client, req typingRequest) {
	if req.GroupID != nil {
		r.hub.PublishExcept(GroupRoom(*req.GroupID), "user_typing", models.TypingEvent{
			UserID:   c.UserID,
			UserName: c.Username,
			IsTyping: req.IsTyping,
		}, c)
		return
	}
	if req.ReceiverID == nil {
		return
	}
	r.hub.Publish(UserRoom(*req.ReceiverID), "user_typing", models.TypingEvent{
		UserID:   c.UserID,
		IsTyping: req.IsTyping,
	})
}

func (r *Router) handleReaction(c *Client, req reactionRequest) {
	if req.Emoji == "" {
		c.SendEvent("error", models.ErrorEvent{Message: "emoji required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// The store toggles with replace semantics; the claimed action from the
	// client is ignored in favor of what actually happened.
	outcome, err := r.messageRepo.React(ctx, c.UserID, req.MessageID, req.Emoji)
	if err != nil {
		c.SendEvent("error", models.ErrorEvent{Message: "failed to update reaction"})
		return
	}

	msg, err := r.messageRepo.GetMessage(ctx, req.MessageID)
	if err != nil {
		return
	}

	event := models.ReactionEvent{
		MessageID: req.MessageID,
		UserID:    c.UserID,
		UserName:  c.Username,
		Emoji:     req.Emoji,
		Action:    string(outcome),
	}
	publishToConversation(r.hub, msg, "reaction_update", event)
}

func (r *Router) replyPreview(ctx context.Context, replyToID int) *models.ReplyPreview {
	replied, err := r.messageRepo.GetMessage(ctx, replyToID)
	if err != nil {
		return nil
	}
	preview := &models.ReplyPreview{
		ID:      replied.ID,
		Content: models.Preview(replied.Content, replyPreviewLen),
	}
	if sender, err := r.userRepo.GetUser(ctx, replied.SenderID); err == nil {
		preview.SenderName = sender.Username
	}
	return preview
}

// publishToConversation routes an event to the rooms of the message's
// conversation: the group room, or both participants' mailbox rooms.
func publishToConversation(hub *Hub, msg models.Message, event string, payload any) {
	if msg.GroupID != nil {
		hub.Publish(GroupRoom(*msg.GroupID), event, payload)
		return
	}
	hub.Publish(UserRoom(msg.SenderID), event, payload)
	if msg.ReceiverID != nil {
		hub.Publish(UserRoom(*msg.ReceiverID), event, payload)
	}
}

func decode(c *Client, data json.RawMessage, dst any) bool {
	if err := json.Unmarshal(data, dst); err != nil {
		c.SendEvent("error", models.ErrorEvent{Message: "malformed event payload"})
		return false
	}
	return true
}

func messageKind(msg models.Message) string {
	if msg.GroupID != nil {
		return "group"
	}
	return "direct"
}
