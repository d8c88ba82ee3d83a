package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jobdomain "github.com/motorlane/motorlane/internal/job/domain"
)

type createJobFromBookingRequest struct {
	BookingID     string `json:"booking_id"`
	Priority      string `json:"priority"`
	EstimatedTime string `json:"estimated_time"`
}

func (s *Server) CreateJobFromBooking(c *gin.Context) {
	var req createJobFromBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.CreateFromBooking(c.Request.Context(), jobdomain.CreateFromBookingRequest{
		BookingID:     strings.TrimSpace(req.BookingID),
		Priority:      strings.TrimSpace(req.Priority),
		EstimatedTime: strings.TrimSpace(req.EstimatedTime),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createJobRequest struct {
	OwnerID       string `json:"owner_id"`
	VehicleID     string `json:"vehicle_id"`
	WorkshopID    string `json:"workshop_id"`
	ServiceType   string `json:"service_type"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	ScheduledDate string `json:"scheduled_date"`
	EstimatedTime string `json:"estimated_time"`
}

func (s *Server) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.Create(c.Request.Context(), jobdomain.CreateJobRequest{
		OwnerID:       strings.TrimSpace(req.OwnerID),
		VehicleID:     strings.TrimSpace(req.VehicleID),
		WorkshopID:    strings.TrimSpace(req.WorkshopID),
		ServiceType:   strings.TrimSpace(req.ServiceType),
		Description:   strings.TrimSpace(req.Description),
		Priority:      strings.TrimSpace(req.Priority),
		ScheduledDate: strings.TrimSpace(req.ScheduledDate),
		EstimatedTime: strings.TrimSpace(req.EstimatedTime),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListJobs(c *gin.Context) {
	var query struct {
		WorkshopID string `form:"workshop_id"`
		MechanicID string `form:"mechanic_id"`
		Status     string `form:"status"`
		PageToken  string `form:"page_token"`
		PageSize   int    `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.List(c.Request.Context(), jobdomain.ListJobRequest{
		WorkshopID: strings.TrimSpace(query.WorkshopID),
		MechanicID: strings.TrimSpace(query.MechanicID),
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

func (s *Server) GetJobByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.jobSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type assignMechanicRequest struct {
	MechanicID string `json:"mechanic_id"`
}

func (s *Server) AssignMechanic(c *gin.Context) {
	var req assignMechanicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.AssignMechanic(c.Request.Context(), jobdomain.AssignMechanicRequest{
		JobID:      strings.TrimSpace(c.Param("id")),
		MechanicID: strings.TrimSpace(req.MechanicID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateJobStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateJobStatus(c *gin.Context) {
	var req updateJobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.UpdateStatus(c.Request.Context(), jobdomain.UpdateStatusRequest{
		JobID:  strings.TrimSpace(c.Param("id")),
		Status: strings.TrimSpace(req.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type addJobPartRequest struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
}

func (s *Server) AddJobPart(c *gin.Context) {
	var req addJobPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.AddPart(c.Request.Context(), jobdomain.AddPartRequest{
		JobID:    strings.TrimSpace(c.Param("id")),
		Name:     strings.TrimSpace(req.Name),
		Quantity: req.Quantity,
		UnitCost: req.UnitCost,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveJobPart(c *gin.Context) {
	resp, err := s.jobSvc.RemovePart(c.Request.Context(), jobdomain.RemovePartRequest{
		JobID:  strings.TrimSpace(c.Param("id")),
		PartID: strings.TrimSpace(c.Param("partId")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type addRepairEntryRequest struct {
	Description string `json:"description"`
}

func (s *Server) AddRepairEntry(c *gin.Context) {
	var req addRepairEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.AddRepairEntry(c.Request.Context(), jobdomain.AddRepairEntryRequest{
		JobID:       strings.TrimSpace(c.Param("id")),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type setJobNotesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) SetJobNotes(c *gin.Context) {
	var req setJobNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.jobSvc.SetNotes(c.Request.Context(), jobdomain.SetNotesRequest{
		JobID: strings.TrimSpace(c.Param("id")),
		Notes: req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
