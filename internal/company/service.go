// Package company manages the company registry: a flat list of
// companies with an optional parent link forming a hierarchy, plus
// the merge operation that folds one company into another.
package company

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service implements company CRUD, hierarchy queries and merging.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the company service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger.Named("company")}
}

// ListFilter narrows the company list. All set fields apply together.
type ListFilter struct {
	Country string
	Status  string
	Search  string
}

// List returns companies matching the filter, ordered by id.
func (s *Service) List(ctx context.Context, f ListFilter) ([]models.Company, error) {
	q := s.db.WithContext(ctx).Model(&models.Company{})
	if f.Country != "" {
		q = q.Where("LOWER(country) = LOWER(?)", f.Country)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(company_id) LIKE LOWER(?)", like, like)
	}

	var companies []models.Company
	if err := q.Order("company_id").Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("company list failed: %w", err)
	}
	return companies, nil
}

// Get returns one company with parent and subsidiaries preloaded.
func (s *Service) Get(ctx context.Context, id string) (*models.Company, error) {
	var c models.Company
	err := s.db.WithContext(ctx).
		Preload("Parent").
		Preload("Subsidiaries").
		Where("company_id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: company %s", apperrors.ErrNotFound, id)
		}
		return nil, err
	}
	return &c, nil
}

// CreateInput carries the fields for a new company. The id is
// generated, never supplied.
type CreateInput struct {
	Name                string
	Country             string
	City                string
	Status              models.CompanyStatus
	ParentID            *string
	OwnershipPercentage *int
}

// Create registers a new company under the next sequential id.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Company, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: company name required", apperrors.ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = models.CompanyActive
	}
	ownership := 100
	if in.OwnershipPercentage != nil {
		ownership = *in.OwnershipPercentage
		if ownership < 0 || ownership > 100 {
			return nil, fmt.Errorf("%w: ownership must be between 0 and 100", apperrors.ErrInvalidInput)
		}
	}

	var created models.Company
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ParentID != nil {
			var parent models.Company
			if err := tx.Where("company_id = ?", *in.ParentID).First(&parent).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: parent company %s", apperrors.ErrNotFound, *in.ParentID)
				}
				return err
			}
		}

		id, err := nextCompanyID(tx)
		if err != nil {
			return err
		}
		created = models.Company{
			CompanyID:           id,
			Name:                in.Name,
			Country:             in.Country,
			City:                in.City,
			Status:              status,
			ParentID:            in.ParentID,
			OwnershipPercentage: ownership,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// nextCompanyID allocates the next COM-NNN identifier from the
// current maximum. Ids stay zero padded to three digits until the
// sequence outgrows them.
func nextCompanyID(tx *gorm.DB) (string, error) {
	var last models.Company
	err := tx.Order("company_id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "COM-001", nil
	}
	if err != nil {
		return "", err
	}

	suffix, ok := strings.CutPrefix(last.CompanyID, "COM-")
	if !ok {
		return "", fmt.Errorf("%w: %s", apperrors.ErrMalformedCompanyID, last.CompanyID)
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperrors.ErrMalformedCompanyID, last.CompanyID)
	}
	return fmt.Sprintf("COM-%03d", n+1), nil
}

// UpdateInput is a partial patch. Nil fields keep their value.
type UpdateInput struct {
	Name                *string
	Country             *string
	City                *string
	Status              *models.CompanyStatus
	ParentID            *string
	ClearParent         bool
	OwnershipPercentage *int
}

// Update applies a partial patch to a company.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Company, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("%w: company name required", apperrors.ErrInvalidInput)
		}
		c.Name = *in.Name
	}
	if in.Country != nil {
		c.Country = *in.Country
	}
	if in.City != nil {
		c.City = *in.City
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.OwnershipPercentage != nil {
		if *in.OwnershipPercentage < 0 || *in.OwnershipPercentage > 100 {
			return nil, fmt.Errorf("%w: ownership must be between 0 and 100", apperrors.ErrInvalidInput)
		}
		c.OwnershipPercentage = *in.OwnershipPercentage
	}
	switch {
	case in.ClearParent:
		c.ParentID = nil
	case in.ParentID != nil:
		if *in.ParentID == id {
			return nil, fmt.Errorf("%w: a company cannot be its own parent", apperrors.ErrInvalidInput)
		}
		var parent models.Company
		if err := s.db.WithContext(ctx).Where("company_id = ?", *in.ParentID).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: parent company %s", apperrors.ErrNotFound, *in.ParentID)
			}
			return nil, err
		}
		c.ParentID = in.ParentID
	}

	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, fmt.Errorf("company update failed: %w", err)
	}
	return c, nil
}

// Delete removes a company. A company that still has subsidiaries is
// refused; its stores and their downstream records are removed with it.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Company
		if err := tx.Where("company_id = ?", id).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: company %s", apperrors.ErrNotFound, id)
			}
			return err
		}

		var subsidiaries int64
		if err := tx.Model(&models.Company{}).Where("parent_id = ?", id).Count(&subsidiaries).Error; err != nil {
			return err
		}
		if subsidiaries > 0 {
			return fmt.Errorf("%w: company %s has %d subsidiaries", apperrors.ErrHasSubsidiaries, id, subsidiaries)
		}

		if err := deleteStores(tx, id); err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
}

// deleteStores removes a company's stores and the records hanging off
// them. Done explicitly so behavior does not depend on database-level
// cascade support.
func deleteStores(tx *gorm.DB, companyID string) error {
	var storeIDs []string
	if err := tx.Model(&models.Store{}).Where("company_id = ?", companyID).Pluck("store_id", &storeIDs).Error; err != nil {
		return err
	}
	if len(storeIDs) == 0 {
		return nil
	}

	var warehouseIDs []string
	if err := tx.Model(&models.Warehouse{}).Where("store_id IN ?", storeIDs).Pluck("warehouse_id", &warehouseIDs).Error; err != nil {
		return err
	}
	if len(warehouseIDs) > 0 {
		if err := tx.Where("warehouse_id IN ?", warehouseIDs).Delete(&models.WarehouseLocation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("warehouse_id IN ?", warehouseIDs).Delete(&models.Warehouse{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("store_id IN ?", storeIDs).Delete(&models.Inventory{}).Error; err != nil {
		return err
	}
	if err := tx.Where("store_id IN ?", storeIDs).Delete(&models.Sale{}).Error; err != nil {
		return err
	}
	return tx.Where("store_id IN ?", storeIDs).Delete(&models.Store{}).Error
}

// MergeResult summarizes what a merge moved.
type MergeResult struct {
	TargetID          string `json:"target_id"`
	SourceID          string `json:"source_id"`
	StoresMoved       int64  `json:"stores_moved"`
	SubsidiariesMoved int64  `json:"subsidiaries_moved"`
}

// Merge folds the source company into the target inside one
// transaction: source stores are reassigned to the target, source
// subsidiaries are reparented under the target, and the source is
// deleted. Any failure rolls the whole merge back.
func (s *Service) Merge(ctx context.Context, targetID, sourceID string) (*MergeResult, error) {
	if targetID == sourceID {
		return nil, fmt.Errorf("%w: cannot merge a company into itself", apperrors.ErrInvalidInput)
	}

	result := &MergeResult{TargetID: targetID, SourceID: sourceID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target, source models.Company
		if err := tx.Where("company_id = ?", targetID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: company %s", apperrors.ErrNotFound, targetID)
			}
			return err
		}
		if err := tx.Where("company_id = ?", sourceID).First(&source).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: company %s", apperrors.ErrNotFound, sourceID)
			}
			return err
		}

		stores := tx.Model(&models.Store{}).
			Where("company_id = ?", sourceID).
			Update("company_id", targetID)
		if stores.Error != nil {
			return stores.Error
		}
		result.StoresMoved = stores.RowsAffected

		subs := tx.Model(&models.Company{}).
			Where("parent_id = ?", sourceID).
			Update("parent_id", targetID)
		if subs.Error != nil {
			return subs.Error
		}
		result.SubsidiariesMoved = subs.RowsAffected

		return tx.Delete(&source).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("companies merged",
		zap.String("target", targetID),
		zap.String("source", sourceID),
		zap.Int64("stores_moved", result.StoresMoved),
		zap.Int64("subsidiaries_moved", result.SubsidiariesMoved),
	)
	return result, nil
}
