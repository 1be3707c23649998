package handler

import (
	"github.com/gin-gonic/gin"

	"fapiao/internal/routing"
	"fapiao/internal/service"
)

// StatsHandler handles aggregate statistics and review report endpoints.
type StatsHandler struct {
	invoiceService service.InvoiceService
	policy         *routing.Policy
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(invoiceService service.InvoiceService, policy *routing.Policy) *StatsHandler {
	return &StatsHandler{invoiceService: invoiceService, policy: policy}
}

// Stats handles GET /api/v1/stats
func (h *StatsHandler) Stats(c *gin.Context) {
	dbStats, err := h.invoiceService.Statistics(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"invoices":   dbStats,
		"quarantine": h.policy.Stats(),
	})
}

// SendReport handles POST /api/v1/stats/report
func (h *StatsHandler) SendReport(c *gin.Context) {
	report := h.invoiceService.ReviewReport()
	if err := h.invoiceService.SendReviewReport(c.Request.Context()); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "review report sent", "report": report})
}
