package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/motorlane/motorlane/internal/booking/domain"
)

type submitBookingRequest struct {
	OwnerID       string `json:"owner_id"`
	WorkshopID    string `json:"workshop_id"`
	VehicleID     string `json:"vehicle_id"`
	ServiceType   string `json:"service_type"`
	PreferredDate string `json:"preferred_date"`
	PreferredTime string `json:"preferred_time"`
	Description   string `json:"description"`
	Contact       struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"contact"`
}

func (s *Server) SubmitBooking(c *gin.Context) {
	var req submitBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.Submit(c.Request.Context(), bookingdomain.SubmitBookingRequest{
		OwnerID:       strings.TrimSpace(req.OwnerID),
		WorkshopID:    strings.TrimSpace(req.WorkshopID),
		VehicleID:     strings.TrimSpace(req.VehicleID),
		ServiceType:   strings.TrimSpace(req.ServiceType),
		PreferredDate: strings.TrimSpace(req.PreferredDate),
		PreferredTime: strings.TrimSpace(req.PreferredTime),
		Description:   strings.TrimSpace(req.Description),
		Contact: bookingdomain.ContactSnapshot{
			Name:  strings.TrimSpace(req.Contact.Name),
			Email: strings.TrimSpace(req.Contact.Email),
			Phone: strings.TrimSpace(req.Contact.Phone),
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBookings(c *gin.Context) {
	var query struct {
		OwnerID    string `form:"owner_id"`
		WorkshopID string `form:"workshop_id"`
		Status     string `form:"status"`
		PageToken  string `form:"page_token"`
		PageSize   int    `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.List(c.Request.Context(), bookingdomain.ListBookingRequest{
		OwnerID:    strings.TrimSpace(query.OwnerID),
		WorkshopID: strings.TrimSpace(query.WorkshopID),
		Status:     strings.TrimSpace(query.Status),
		PageToken:  strings.TrimSpace(query.PageToken),
		PageSize:   query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBookingByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.bookingSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type advanceBookingStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) AdvanceBookingStatus(c *gin.Context) {
	var req advanceBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bookingSvc.AdvanceStatus(c.Request.Context(), bookingdomain.AdvanceStatusRequest{
		BookingID: strings.TrimSpace(c.Param("id")),
		Status:    strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
