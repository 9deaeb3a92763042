// Package api - Inventory and warehouse handlers
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meridian/supplyhub/internal/audit"
	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/inventory"
	"github.com/meridian/supplyhub/internal/models"
)

// InventoryHandler serves inventory browsing and export.
type InventoryHandler struct {
	svc      *inventory.Service
	auditSvc *audit.Service
}

// NewInventoryHandler creates an inventory handler.
func NewInventoryHandler(svc *inventory.Service, auditSvc *audit.Service) *InventoryHandler {
	return &InventoryHandler{svc: svc, auditSvc: auditSvc}
}

func queryFilter(c *gin.Context) inventory.QueryFilter {
	return inventory.QueryFilter{
		Search:     c.Query("search"),
		Country:    c.Query("country"),
		Category:   c.Query("category"),
		City:       c.Query("city"),
		CompanyID:  c.Query("company_id"),
		StockLevel: c.Query("stock_level"),
	}
}

// Query returns filtered inventory rows
// GET /api/inventory
func (h *InventoryHandler) Query(c *gin.Context) {
	items, err := h.svc.Query(c.Request.Context(), queryFilter(c))
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// Locations lists warehouse slots for a product
// GET /api/inventory/:sku/locations
func (h *InventoryHandler) Locations(c *gin.Context) {
	locations, err := h.svc.Locations(c.Request.Context(), c.Param("sku"), c.Query("country"))
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations, "count": len(locations)})
}

// Export downloads the filtered inventory as CSV or JSON
// GET /api/inventory/export?format=csv
func (h *InventoryHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.svc.Export(c.Request.Context(), queryFilter(c), format)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	user := currentUser(c)
	_, _ = h.auditSvc.Record(c.Request.Context(), audit.Entry{
		UserID:      &user.ID,
		Action:      models.AuditExport,
		ObjectType:  "Inventory",
		Description: fmt.Sprintf("Exported inventory as %s", format),
		IPAddress:   c.ClientIP(),
	})

	filename := fmt.Sprintf("inventory-%s.%s", time.Now().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
