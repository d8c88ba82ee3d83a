package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	notificationdomain "github.com/motorlane/motorlane/internal/notification/domain"
)

func (s *Server) ListNotifications(c *gin.Context) {
	var query struct {
		ActorID   string `form:"actor_id"`
		Unread    bool   `form:"unread"`
		PageToken string `form:"page_token"`
		PageSize  int    `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.notificationSvc.List(c.Request.Context(), notificationdomain.ListNotificationRequest{
		ActorID:   strings.TrimSpace(query.ActorID),
		Unread:    query.Unread,
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type markNotificationsReadRequest struct {
	ActorID  string   `json:"actor_id"`
	EventIDs []string `json:"event_ids"`
}

func (s *Server) MarkNotificationsRead(c *gin.Context) {
	var req markNotificationsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.notificationSvc.MarkRead(c.Request.Context(), notificationdomain.MarkReadRequest{
		ActorID:  strings.TrimSpace(req.ActorID),
		EventIDs: req.EventIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": updated}})
}
