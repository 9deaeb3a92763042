// Package api - Company management handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meridian/supplyhub/internal/audit"
	"github.com/meridian/supplyhub/internal/company"
	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/models"
)

// CompanyHandler serves the company endpoints.
type CompanyHandler struct {
	svc      *company.Service
	auditSvc *audit.Service
}

// NewCompanyHandler creates a company handler.
func NewCompanyHandler(svc *company.Service, auditSvc *audit.Service) *CompanyHandler {
	return &CompanyHandler{svc: svc, auditSvc: auditSvc}
}

// List returns companies filtered by country, status and search
// GET /api/companies
func (h *CompanyHandler) List(c *gin.Context) {
	companies, err := h.svc.List(c.Request.Context(), company.ListFilter{
		Country: c.Query("country"),
		Status:  c.Query("status"),
		Search:  c.Query("search"),
	})
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies, "count": len(companies)})
}

// Get returns one company with its hierarchy links
// GET /api/companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	comp, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}
	c.JSON(http.StatusOK, comp)
}

// CreateCompanyRequest carries the fields for a new company.
type CreateCompanyRequest struct {
	Name                string  `json:"name" binding:"required"`
	Country             string  `json:"country"`
	City                string  `json:"city"`
	Status              string  `json:"status"`
	ParentID            *string `json:"parent_id"`
	OwnershipPercentage *int    `json:"ownership"`
}

// Create registers a new company
// POST /api/companies
func (h *CompanyHandler) Create(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	comp, err := h.svc.Create(c.Request.Context(), company.CreateInput{
		Name:                req.Name,
		Country:             req.Country,
		City:                req.City,
		Status:              models.CompanyStatus(req.Status),
		ParentID:            req.ParentID,
		OwnershipPercentage: req.OwnershipPercentage,
	})
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	h.record(c, models.AuditCreate, comp.CompanyID, fmt.Sprintf("Created company %s (%s)", comp.Name, comp.CompanyID))
	c.JSON(http.StatusCreated, comp)
}

// UpdateCompanyRequest is a partial patch; absent fields are kept.
type UpdateCompanyRequest struct {
	Name                *string `json:"name"`
	Country             *string `json:"country"`
	City                *string `json:"city"`
	Status              *string `json:"status"`
	ParentID            *string `json:"parent_id"`
	ClearParent         bool    `json:"clear_parent"`
	OwnershipPercentage *int    `json:"ownership"`
}

// Update patches a company
// PATCH /api/companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	in := company.UpdateInput{
		Name:                req.Name,
		Country:             req.Country,
		City:                req.City,
		ParentID:            req.ParentID,
		ClearParent:         req.ClearParent,
		OwnershipPercentage: req.OwnershipPercentage,
	}
	if req.Status != nil {
		status := models.CompanyStatus(*req.Status)
		in.Status = &status
	}

	comp, err := h.svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	h.record(c, models.AuditUpdate, comp.CompanyID, fmt.Sprintf("Updated company %s", comp.CompanyID))
	c.JSON(http.StatusOK, comp)
}

// Delete removes a company without subsidiaries
// DELETE /api/companies/:id
func (h *CompanyHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	h.record(c, models.AuditDelete, id, fmt.Sprintf("Deleted company %s", id))
	c.JSON(http.StatusOK, gin.H{"message": "company deleted"})
}

// MergeRequest names the company to fold into the target.
type MergeRequest struct {
	SourceID string `json:"source_id" binding:"required"`
}

// Merge folds a source company into the target
// POST /api/companies/:id/merge
func (h *CompanyHandler) Merge(c *gin.Context) {
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	result, err := h.svc.Merge(c.Request.Context(), c.Param("id"), req.SourceID)
	if err != nil {
		status, response := apperrors.ToHTTPError(err)
		c.JSON(status, response)
		return
	}

	h.record(c, models.AuditUpdate, result.TargetID,
		fmt.Sprintf("Merged company %s into %s (%d stores, %d subsidiaries)",
			result.SourceID, result.TargetID, result.StoresMoved, result.SubsidiariesMoved))
	c.JSON(http.StatusOK, result)
}

func (h *CompanyHandler) record(c *gin.Context, action models.AuditAction, objectID, description string) {
	user := currentUser(c)
	_, _ = h.auditSvc.Record(c.Request.Context(), audit.Entry{
		UserID:      &user.ID,
		Action:      action,
		ObjectType:  "Company",
		ObjectID:    objectID,
		Description: description,
		IPAddress:   c.ClientIP(),
	})
}
