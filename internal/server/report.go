package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reportdomain "github.com/motorlane/motorlane/internal/report/domain"
)

type requestReportRequest struct {
	WorkshopID string `json:"workshop_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

func (s *Server) RequestReport(c *gin.Context) {
	var req requestReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportSvc.RequestReport(c.Request.Context(), reportdomain.RequestReportRequest{
		WorkshopID: strings.TrimSpace(req.WorkshopID),
		Month:      req.Month,
		Year:       req.Year,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GenerateReport(c *gin.Context) {
	resp, err := s.reportSvc.Generate(c.Request.Context(), reportdomain.GenerateRequest{
		RequestID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListReports(c *gin.Context) {
	var query struct {
		WorkshopID string `form:"workshop_id"`
		Status     string `form:"status"`
		PageToken  string `form:"page_token"`
		PageSize   int    `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportSvc.List(c.Request.Context(), reportdomain.ListReportRequest{
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
