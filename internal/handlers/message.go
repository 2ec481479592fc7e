package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mugishapc/bvoice/internal/models"
	"github.com/mugishapc/bvoice/internal/repositories"
	"github.com/mugishapc/bvoice/internal/ws"
)

// MessageHandler serves the conversation, reaction and subscription endpoints.
type MessageHandler struct {
	messageRepo repositories.MessageRepository
	groupRepo   repositories.GroupRepository
	userRepo    repositories.UserRepository
	hub         *ws.Hub
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, groupRepo repositories.GroupRepository, userRepo repositories.UserRepository, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{
		messageRepo: messageRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		hub:         hub,
	}
}

// GetConversation returns the direct conversation with a peer. Fetching marks
// every unread message from the peer as read; read state is coupled to fetch.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	peerID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID := c.GetInt("userID")

	if err := h.messageRepo.MarkConversationRead(c.Request.Context(), userID, peerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update read state"})
		return
	}

	msgs, err := h.messageRepo.GetConversation(c.Request.Context(), userID, peerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GetGroupMessages returns the group conversation for members only.
func (h *MessageHandler) GetGroupMessages(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	msgs, err := h.messageRepo.GetGroupMessages(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	senderIDs := make([]int, 0, len(msgs))
	seen := map[int]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	names, err := h.userRepo.GetUsernames(c.Request.Context(), senderIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load senders"})
		return
	}

	type messageResponse struct {
		models.Message
		SenderName string `json:"sender_name,omitempty"`
	}

	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{Message: m, SenderName: names[m.SenderID]})
	}

	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

// React toggles the caller's reaction on a message and mirrors the outcome to
// the conversation's rooms.
func (h *MessageHandler) React(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji required"})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}

	allowed, err := h.canViewMessage(c, msg, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	outcome, err := h.messageRepo.React(c.Request.Context(), userID, messageID, req.Emoji)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update reaction"})
		return
	}

	if h.hub != nil {
		userName := ""
		if names, err := h.userRepo.GetUsernames(c.Request.Context(), []int{userID}); err == nil {
			userName = names[userID]
		}
		event := models.ReactionEvent{
			MessageID: messageID,
			UserID:    userID,
			UserName:  userName,
			Emoji:     req.Emoji,
			Action:    string(outcome),
		}
		publishToConversation(h.hub, msg, "reaction_update", event)
	}

	c.JSON(http.StatusOK, gin.H{"action": string(outcome)})
}

// GetMessage returns a single message with its reactions and, if present, a
// summary of the reply target. Callers must be a participant or group member.
func (h *MessageHandler) GetMessage(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messageRepo.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}

	allowed, err := h.canViewMessage(c, msg, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	reactions, err := h.messageRepo.ListReactions(c.Request.Context(), messageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reactions"})
		return
	}

	names, err := h.userRepo.GetUsernames(c.Request.Context(), []int{msg.SenderID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sender"})
		return
	}

	resp := gin.H{
		"id":           msg.ID,
		"content":      msg.Content,
		"timestamp":    msg.Timestamp,
		"sender_id":    msg.SenderID,
		"receiver_id":  msg.ReceiverID,
		"group_id":     msg.GroupID,
		"is_read":      msg.IsRead,
		"message_type": msg.MessageType,
		"file_path":    msg.FilePath,
		"sender_name":  names[msg.SenderID],
		"reactions":    reactions,
	}

	if msg.ReplyToID != nil {
		if replied, err := h.messageRepo.GetMessage(c.Request.Context(), *msg.ReplyToID); err == nil {
			replyNames, _ := h.userRepo.GetUsernames(c.Request.Context(), []int{replied.SenderID})
			resp["reply_to"] = models.ReplyPreview{
				ID:          replied.ID,
				Content:     replied.Content,
				SenderName:  replyNames[replied.SenderID],
				MessageType: replied.MessageType,
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

// SavePushSubscription stores the caller's push subscription blob as-is. The
// format is opaque; it is passed through to the push provider unmodified.
func (h *MessageHandler) SavePushSubscription(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.userRepo.SetPushSubscription(c.Request.Context(), userID, string(body)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *MessageHandler) canViewMessage(c *gin.Context, msg models.Message, userID int) (bool, error) {
	if msg.GroupID != nil {
		return h.groupRepo.IsMember(c.Request.Context(), *msg.GroupID, userID)
	}
	if msg.SenderID == userID {
		return true, nil
	}
	return msg.ReceiverID != nil && *msg.ReceiverID == userID, nil
}

// publishToConversation routes an event to the message's rooms: the group
// room, or both participants' mailbox rooms.
func publishToConversation(hub *ws.Hub, msg models.Message, event string, payload any) {
	if msg.GroupID != nil {
		hub.Publish(ws.GroupRoom(*msg.GroupID), event, payload)
		return
	}
	hub.Publish(ws.UserRoom(msg.SenderID), event, payload)
	if msg.ReceiverID != nil {
		hub.Publish(ws.UserRoom(*msg.ReceiverID), event, payload)
	}
}
