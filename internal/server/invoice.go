package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/motorlane/motorlane/internal/invoice/domain"
)

type generateInvoiceRequest struct {
	JobID   string `json:"job_id"`
	TaxRate float64 `json:"tax_rate"`
	Labor   *struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	} `json:"labor"`
}

func (s *Server) GenerateInvoice(c *gin.Context) {
	var req generateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	domainReq := invoicedomain.GenerateFromJobRequest{
		JobID:   strings.TrimSpace(req.JobID),
		TaxRate: req.TaxRate,
	}
	if req.Labor != nil {
		domainReq.Labor = &invoicedomain.LaborLine{
			Description: strings.TrimSpace(req.Labor.Description),
			Amount:      req.Labor.Amount,
		}
	}

	resp, err := s.invoiceSvc.GenerateFromJob(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
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

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
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

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type setInvoiceStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (s *Server) SetInvoiceStatus(c *gin.Context) {
	var req setInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.SetStatus(c.Request.Context(), invoicedomain.SetStatusRequest{
		InvoiceID: strings.TrimSpace(c.Param("id")),
		Status:    strings.TrimSpace(req.Status),
		Notes:     strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
