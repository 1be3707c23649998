package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fapiao/internal/csvexport"
	"fapiao/internal/domain"
	"fapiao/internal/excelexport"
	"fapiao/internal/service"
)

// InvoiceHandler handles invoice processing and management endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Upload handles POST /api/v1/invoices/upload
func (h *InvoiceHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	inv, err := h.invoiceService.Upload(c.Request.Context(), service.UploadInput{
		File:   file,
		Header: header,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, inv)
}

// Process handles POST /api/v1/invoices/process
func (h *InvoiceHandler) Process(c *gin.Context) {
	summary, err := h.invoiceService.ProcessAll(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, summary)
}

// List handles GET /api/v1/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: filter.Offset, Limit: filter.Limit})
}

// GetByID handles GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	inv, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// Delete handles DELETE /api/v1/invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "invoice deleted"})
}

// ClearAll handles DELETE /api/v1/invoices
func (h *InvoiceHandler) ClearAll(c *gin.Context) {
	removed, err := h.invoiceService.ClearAll(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"removed": removed})
}

// Deduplicate handles POST /api/v1/invoices/deduplicate
func (h *InvoiceHandler) Deduplicate(c *gin.Context) {
	removed, err := h.invoiceService.RemoveDuplicates(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"removed": removed})
}

// ExportCSV handles GET /api/v1/invoices/export/csv
func (h *InvoiceHandler) ExportCSV(c *gin.Context) {
	invoices, err := h.invoiceService.ListAll(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+csvexport.BuildFilename()+`"`)
	c.Status(http.StatusOK)

	if _, err := c.Writer.Write(csvexport.BOM); err != nil {
		return
	}
	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteInvoices(invoices); err != nil {
		return
	}
	w.Flush()
}

// ExportExcel handles GET /api/v1/invoices/export/excel
func (h *InvoiceHandler) ExportExcel(c *gin.Context) {
	invoices, err := h.invoiceService.ListAll(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	data, err := excelexport.Build(invoices)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+excelexport.BuildFilename()+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// parseFilter reads list query parameters. Returns false when a parameter is
// invalid (error response already written).
func parseFilter(c *gin.Context) (domain.InvoiceFilter, bool) {
	var filter domain.InvoiceFilter

	if t := c.Query("type"); t != "" {
		switch domain.InvoiceType(t) {
		case domain.InvoiceTypeElectronic, domain.InvoiceTypeSpecial, domain.InvoiceTypeFuel:
			it := domain.InvoiceType(t)
			filter.InvoiceType = &it
		default:
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid invoice type; allowed: electronic, special, fuel")
			return filter, false
		}
	}

	if v := c.Query("valid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "valid must be a boolean")
			return filter, false
		}
		filter.IsValid = &b
	}

	filter.DateFrom = c.Query("date_from")
	filter.DateTo = c.Query("date_to")

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	filter.Offset = offset
	filter.Limit = limit

	return filter, true
}
