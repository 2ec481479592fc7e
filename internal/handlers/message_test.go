package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mugishapc/bvoice/internal/mocks"
	"github.com/mugishapc/bvoice/internal/models"
	"github.com/mugishapc/bvoice/internal/repositories"
)

func intPtr(v int) *int { return &v }

func authAs(userID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func messageTestRouter(userID int, h *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(authAs(userID))
	r.GET("/messages/:user_id", h.GetConversation)
	r.GET("/group_messages/:group_id", h.GetGroupMessages)
	r.GET("/message/:message_id", h.GetMessage)
	r.POST("/message/:message_id/react", h.React)
	r.POST("/push_subscription", h.SavePushSubscription)
	return r
}

func TestGetConversationMarksRead(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	h := NewMessageHandler(messageRepo, new(mocks.GroupRepositoryMock), new(mocks.UserRepositoryMock), nil)

	msgs := []models.Message{
		{ID: 1, SenderID: 2, ReceiverID: intPtr(1), Content: "hi", IsRead: true},
		{ID: 2, SenderID: 1, ReceiverID: intPtr(2), Content: "hey"},
	}
	// Read-marking happens before the fetch so the response reflects it.
	markCall := messageRepo.On("MarkConversationRead", mock.Anything, 1, 2).Return(nil).Once()
	messageRepo.On("GetConversation", mock.Anything, 1, 2).Return(msgs, nil).Once().NotBefore(markCall)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/messages/2", nil)
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	require.True(t, resp.Messages[0].IsRead)
	messageRepo.AssertExpectations(t)
}

func TestGetConversationInvalidPeerID(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	h := NewMessageHandler(messageRepo, new(mocks.GroupRepositoryMock), new(mocks.UserRepositoryMock), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/messages/abc", nil)
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	messageRepo.AssertNotCalled(t, "MarkConversationRead", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetGroupMessagesRequiresMembership(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	h := NewMessageHandler(messageRepo, groupRepo, new(mocks.UserRepositoryMock), nil)

	groupRepo.On("IsMember", mock.Anything, 9, 1).Return(false, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/group_messages/9", nil)
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	messageRepo.AssertNotCalled(t, "GetGroupMessages", mock.Anything, mock.Anything)
}

func TestGetGroupMessagesResolvesSenderNames(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	h := NewMessageHandler(messageRepo, groupRepo, userRepo, nil)

	groupRepo.On("IsMember", mock.Anything, 9, 1).Return(true, nil).Once()
	messageRepo.On("GetGroupMessages", mock.Anything, 9).Return([]models.Message{
		{ID: 1, SenderID: 2, GroupID: intPtr(9), Content: "a"},
		{ID: 2, SenderID: 3, GroupID: intPtr(9), Content: "b"},
		{ID: 3, SenderID: 2, GroupID: intPtr(9), Content: "c"},
	}, nil).Once()
	// Duplicate sender ids collapse into one lookup.
	userRepo.On("GetUsernames", mock.Anything, []int{2, 3}).Return(map[int]string{2: "bob", 3: "carol"}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/group_messages/9", nil)
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Messages []struct {
			ID         int    `json:"id"`
			SenderName string `json:"sender_name"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 3)
	require.Equal(t, "bob", resp.Messages[0].SenderName)
	require.Equal(t, "carol", resp.Messages[1].SenderName)
	userRepo.AssertExpectations(t)
}

func TestReactRespondsWithStoreOutcome(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	h := NewMessageHandler(messageRepo, new(mocks.GroupRepositoryMock), userRepo, nil)

	msg := models.Message{ID: 10, SenderID: 1, ReceiverID: intPtr(2)}
	messageRepo.On("GetMessage", mock.Anything, 10).Return(msg, nil).Once()
	messageRepo.On("React", mock.Anything, 1, 10, "❤️").Return(models.ReactionAdded, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/message/10/react", strings.NewReader(`{"emoji":"❤️"}`))
	req.Header.Set("Content-Type", "application/json")
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "added", resp.Action)
	messageRepo.AssertExpectations(t)
}

func TestReactDeniedForOutsiders(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	h := NewMessageHandler(messageRepo, new(mocks.GroupRepositoryMock), new(mocks.UserRepositoryMock), nil)

	// A direct message between users 2 and 3; caller 1 is neither.
	msg := models.Message{ID: 10, SenderID: 2, ReceiverID: intPtr(3)}
	messageRepo.On("GetMessage", mock.Anything, 10).Return(msg, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/message/10/react", strings.NewReader(`{"emoji":"👍"}`))
	req.Header.Set("Content-Type", "application/json")
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	messageRepo.AssertNotCalled(t, "React", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReactMissingEmoji(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	h := NewMessageHandler(messageRepo, new(mocks.GroupRepositoryMock), new(mocks.UserRepositoryMock), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/message/10/react", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMessageNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	h := NewMessageHandler(messageRepo, new(mocks.GroupRepositoryMock), new(mocks.UserRepositoryMock), nil)

	messageRepo.On("GetMessage", mock.Anything, 99).Return(nil, repositories.ErrMessageNotFound).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/message/99", nil)
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMessageIncludesReactionsAndReply(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	h := NewMessageHandler(messageRepo, new(mocks.GroupRepositoryMock), userRepo, nil)

	msg := models.Message{ID: 10, SenderID: 2, ReceiverID: intPtr(1), Content: "see above", ReplyToID: intPtr(5), MessageType: "text"}
	replied := models.Message{ID: 5, SenderID: 1, ReceiverID: intPtr(2), Content: "original", MessageType: "text"}
	messageRepo.On("GetMessage", mock.Anything, 10).Return(msg, nil).Once()
	messageRepo.On("GetMessage", mock.Anything, 5).Return(replied, nil).Once()
	messageRepo.On("ListReactions", mock.Anything, 10).Return([]models.MessageReaction{
		{ID: 7, MessageID: 10, UserID: 1, Emoji: "👍", UserName: "alice"},
	}, nil).Once()
	userRepo.On("GetUsernames", mock.Anything, []int{2}).Return(map[int]string{2: "bob"}, nil).Once()
	userRepo.On("GetUsernames", mock.Anything, []int{1}).Return(map[int]string{1: "alice"}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/message/10", nil)
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "bob", resp["sender_name"])
	require.Len(t, resp["reactions"].([]any), 1)
	reply := resp["reply_to"].(map[string]any)
	require.Equal(t, float64(5), reply["id"])
	// Unlike the inline preview on live delivery, the detail view carries the
	// full reply content.
	require.Equal(t, "original", reply["content"])
	require.Equal(t, "alice", reply["sender_name"])
}

func TestSavePushSubscription(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	h := NewMessageHandler(new(mocks.MessageRepositoryMock), new(mocks.GroupRepositoryMock), userRepo, nil)

	subscription := `{"endpoint":"https://push.example/abc","keys":{"p256dh":"k","auth":"a"}}`
	userRepo.On("SetPushSubscription", mock.Anything, 1, subscription).Return(nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/push_subscription", strings.NewReader(subscription))
	req.Header.Set("Content-Type", "application/json")
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	userRepo.AssertExpectations(t)
}

func TestSavePushSubscriptionRejectsMalformedJSON(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	h := NewMessageHandler(new(mocks.MessageRepositoryMock), new(mocks.GroupRepositoryMock), userRepo, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/push_subscription", strings.NewReader(`{"endpoint":`))
	req.Header.Set("Content-Type", "application/json")
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	userRepo.AssertNotCalled(t, "SetPushSubscription", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetConversationStoreFailure(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	h := NewMessageHandler(messageRepo, new(mocks.GroupRepositoryMock), new(mocks.UserRepositoryMock), nil)

	messageRepo.On("MarkConversationRead", mock.Anything, 1, 2).Return(errors.New("db down")).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/messages/2", nil)
	messageTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	messageRepo.AssertNotCalled(t, "GetConversation", mock.Anything, mock.Anything, mock.Anything)
}
