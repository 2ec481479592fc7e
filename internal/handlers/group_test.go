package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mugishapc/bvoice/internal/mocks"
	"github.com/mugishapc/bvoice/internal/models"
)

func groupTestRouter(userID int, h *GroupHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(authAs(userID))
	r.POST("/groups", h.CreateGroup)
	r.GET("/groups", h.ListGroups)
	r.PUT("/groups/:group_id", h.UpdateGroup)
	return r
}

func TestCreateGroup(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	h := NewGroupHandler(groupRepo, nil)

	groupRepo.On("CreateGroup", mock.Anything, 1, "devs", mock.MatchedBy(func(d *string) bool {
		return d != nil && *d == "dev chatter"
	})).Return(models.Group{ID: 9, Name: "devs", CreatorID: 1}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/groups", strings.NewReader(`{"name":"devs","description":"dev chatter"}`))
	req.Header.Set("Content-Type", "application/json")
	groupTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		GroupID int `json:"group_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 9, resp.GroupID)
	groupRepo.AssertExpectations(t)
}

func TestCreateGroupRequiresName(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	h := NewGroupHandler(groupRepo, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/groups", strings.NewReader(`{"description":"no name"}`))
	req.Header.Set("Content-Type", "application/json")
	groupTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	groupRepo.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListGroups(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	h := NewGroupHandler(groupRepo, nil)

	groupRepo.On("ListGroupsForUser", mock.Anything, 1).Return([]models.Group{
		{ID: 9, Name: "devs"},
		{ID: 10, Name: "ops"},
	}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/groups", nil)
	groupTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Groups []models.Group `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Groups, 2)
}

func TestUpdateGroupAdminOnly(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	h := NewGroupHandler(groupRepo, nil)

	groupRepo.On("IsAdmin", mock.Anything, 9, 1).Return(false, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/groups/9", strings.NewReader(`{"name":"renamed"}`))
	req.Header.Set("Content-Type", "application/json")
	groupTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	groupRepo.AssertNotCalled(t, "UpdateGroup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateGroup(t *testing.T) {
	groupRepo := new(mocks.GroupRepositoryMock)
	h := NewGroupHandler(groupRepo, nil)

	groupRepo.On("IsAdmin", mock.Anything, 9, 1).Return(true, nil).Once()
	groupRepo.On("UpdateGroup", mock.Anything, 9, "renamed", (*string)(nil)).Return(nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/groups/9", strings.NewReader(`{"name":"renamed"}`))
	req.Header.Set("Content-Type", "application/json")
	groupTestRouter(1, h).ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	groupRepo.AssertExpectations(t)
}
