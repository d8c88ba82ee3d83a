package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ratingdomain "github.com/motorlane/motorlane/internal/rating/domain"
)

type submitRatingRequest struct {
	BookingID string `json:"booking_id"`
	OwnerID   string `json:"owner_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (s *Server) SubmitRating(c *gin.Context) {
	var req submitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ratingSvc.Submit(c.Request.Context(), ratingdomain.SubmitRatingRequest{
		BookingID: strings.TrimSpace(req.BookingID),
		OwnerID:   strings.TrimSpace(req.OwnerID),
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRatings(c *gin.Context) {
	var query struct {
		OwnerID    string `form:"owner_id"`
		WorkshopID string `form:"workshop_id"`
		PageToken  string `form:"page_token"`
		PageSize   int    `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ratingSvc.List(c.Request.Context(), ratingdomain.ListRatingRequest{
		OwnerID:    strings.TrimSpace(query.OwnerID),
		WorkshopID: strings.TrimSpace(query.WorkshopID),
		PageToken:  strings.TrimSpace(query.PageToken),
		PageSize:   query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPendingRatings(c *gin.Context) {
	ownerID := strings.TrimSpace(c.Query("owner_id"))

	resp, err := s.ratingSvc.ListPending(c.Request.Context(), ownerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type respondToRatingRequest struct {
	Response string `json:"response"`
	Status   string `json:"status"`
}

func (s *Server) RespondToRating(c *gin.Context) {
	var req respondToRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ratingSvc.Respond(c.Request.Context(), ratingdomain.RespondRequest{
		RatingID:   strings.TrimSpace(c.Param("id")),
		Response:   strings.TrimSpace(req.Response),
		StatusHint: strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type requestRatingDeletionRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) RequestRatingDeletion(c *gin.Context) {
	var req requestRatingDeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ratingSvc.RequestDeletion(c.Request.Context(), ratingdomain.RequestDeletionRequest{
		RatingID: strings.TrimSpace(c.Param("id")),
		Reason:   strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type resolveRatingRequestRequest struct {
	Action     string `json:"action"`
	AdminNotes string `json:"admin_notes"`
}

func (s *Server) ResolveRatingRequest(c *gin.Context) {
	var req resolveRatingRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ratingSvc.ResolveRequest(c.Request.Context(), ratingdomain.ResolveRequestRequest{
		RequestID:  strings.TrimSpace(c.Param("id")),
		Action:     strings.TrimSpace(req.Action),
		AdminNotes: strings.TrimSpace(req.AdminNotes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
