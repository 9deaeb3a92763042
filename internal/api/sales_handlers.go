// Package api - Dashboard and sales handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/sales"
)

// SalesHandler serves the dashboard and sales analytics endpoints.
type SalesHandler struct {
	svc *sales.Service
}

// NewSalesHandler creates a sales handler.
func NewSalesHandler(svc *sales.Service) *SalesHandler {
	return &SalesHandler{svc: svc}
}

// DashboardMetrics returns today's headline numbers
// GET /api/dashboard/metrics
func (h *SalesHandler) DashboardMetrics(c *gin.Context) {
	metrics, err := h.svc.DashboardMetrics(c.Request.Context())
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// MonthlyByCountry returns the month-by-country sales breakdown
// GET /api/sales/monthly?year=2026
func (h *SalesHandler) MonthlyByCountry(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	breakdown, err := h.svc.MonthlyByCountry(c.Request.Context(), year)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"monthly": breakdown})
}

// Analytics returns the analytics view for one company
// GET /api/sales/analytics/:company_id
func (h *SalesHandler) Analytics(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	analytics, err := h.svc.Analytics(c.Request.Context(), c.Param("company_id"), year)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, analytics)
}
