package company

import (
	"context"
	"testing"

	apperrors "github.com/meridian/supplyhub/internal/errors"
	"github.com/meridian/supplyhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")

	err = db.AutoMigrate(
		&models.Company{}, &models.Store{}, &models.Warehouse{},
		&models.WarehouseLocation{}, &models.Inventory{}, &models.Sale{},
		&models.Product{}, &models.Category{},
	)
	require.NoError(t, err, "failed to migrate test database")
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	return NewService(db, zap.NewNop()), db
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{Name: "First Co"})
	require.NoError(t, err)
	assert.Equal(t, "COM-001", first.CompanyID)
	assert.Equal(t, models.CompanyActive, first.Status)
	assert.Equal(t, 100, first.OwnershipPercentage)

	second, err := svc.Create(ctx, CreateInput{Name: "Second Co"})
	require.NoError(t, err)
	assert.Equal(t, "COM-002", second.CompanyID)
}

func TestCreateContinuesFromExistingMax(t *testing.T) {
	svc, db := newTestService(t)

	require.NoError(t, db.Create(&models.Company{CompanyID: "COM-002", Name: "Existing"}).Error)

	next, err := svc.Create(context.Background(), CreateInput{Name: "Next Co"})
	require.NoError(t, err)
	assert.Equal(t, "COM-003", next.CompanyID)
}

func TestCreateRejectsMalformedMaxID(t *testing.T) {
	svc, db := newTestService(t)

	require.NoError(t, db.Create(&models.Company{CompanyID: "XYZ-abc", Name: "Legacy"}).Error)

	_, err := svc.Create(context.Background(), CreateInput{Name: "Next Co"})
	assert.ErrorIs(t, err, apperrors.ErrMalformedCompanyID)
}

func TestCreateValidatesParentAndOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	missing := "COM-999"
	_, err := svc.Create(ctx, CreateInput{Name: "Orphan", ParentID: &missing})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	over := 150
	_, err = svc.Create(ctx, CreateInput{Name: "Greedy", OwnershipPercentage: &over})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "Patch Co", Country: "Germany", City: "Berlin"})
	require.NoError(t, err)

	newCity := "Munich"
	updated, err := svc.Update(ctx, created.CompanyID, UpdateInput{City: &newCity})
	require.NoError(t, err)
	assert.Equal(t, "Munich", updated.City)
	assert.Equal(t, "Patch Co", updated.Name)
	assert.Equal(t, "Germany", updated.Country)
}

func TestUpdateRejectsSelfParent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "Loop Co"})
	require.NoError(t, err)

	self := created.CompanyID
	_, err = svc.Update(ctx, created.CompanyID, UpdateInput{ParentID: &self})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDeleteRejectsCompanyWithSubsidiaries(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, CreateInput{Name: "Parent Co"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Name: "Child Co", ParentID: &parent.CompanyID})
	require.NoError(t, err)

	err = svc.Delete(ctx, parent.CompanyID)
	assert.ErrorIs(t, err, apperrors.ErrHasSubsidiaries)

	// Parent must still exist after the rejected delete.
	var count int64
	require.NoError(t, db.Model(&models.Company{}).Where("company_id = ?", parent.CompanyID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteRemovesStoresAndStock(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	leaf, err := svc.Create(ctx, CreateInput{Name: "Leaf Co"})
	require.NoError(t, err)

	store := models.Store{StoreID: leaf.CompanyID + "-HQ", CompanyID: leaf.CompanyID, Name: "HQ"}
	require.NoError(t, db.Create(&store).Error)
	inv := models.Inventory{ProductSKU: "SKU-0001", StoreID: store.StoreID, Quantity: 10}
	require.NoError(t, db.Create(&inv).Error)

	require.NoError(t, svc.Delete(ctx, leaf.CompanyID))

	var stores, inventories int64
	db.Model(&models.Store{}).Where("company_id = ?", leaf.CompanyID).Count(&stores)
	db.Model(&models.Inventory{}).Where("store_id = ?", store.StoreID).Count(&inventories)
	assert.Zero(t, stores)
	assert.Zero(t, inventories)
}

func TestMergeMovesStoresAndSubsidiaries(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	target, err := svc.Create(ctx, CreateInput{Name: "Target Co"})
	require.NoError(t, err)
	source, err := svc.Create(ctx, CreateInput{Name: "Source Co"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, CreateInput{Name: "Child Co", ParentID: &source.CompanyID})
	require.NoError(t, err)

	store := models.Store{StoreID: source.CompanyID + "-HQ", CompanyID: source.CompanyID, Name: "Source HQ"}
	require.NoError(t, db.Create(&store).Error)

	result, err := svc.Merge(ctx, target.CompanyID, source.CompanyID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.StoresMoved)
	assert.EqualValues(t, 1, result.SubsidiariesMoved)

	// Source is gone, its store and subsidiary now belong to the target.
	var sourceCount int64
	db.Model(&models.Company{}).Where("company_id = ?", source.CompanyID).Count(&sourceCount)
	assert.Zero(t, sourceCount)

	var movedStore models.Store
	require.NoError(t, db.First(&movedStore, "store_id = ?", store.StoreID).Error)
	assert.Equal(t, target.CompanyID, movedStore.CompanyID)

	var movedChild models.Company
	require.NoError(t, db.First(&movedChild, "company_id = ?", child.CompanyID).Error)
	require.NotNil(t, movedChild.ParentID)
	assert.Equal(t, target.CompanyID, *movedChild.ParentID)
}

func TestMergeNonexistentSourceRollsBack(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	target, err := svc.Create(ctx, CreateInput{Name: "Target Co"})
	require.NoError(t, err)

	_, err = svc.Merge(ctx, target.CompanyID, "COM-999")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Merge(ctx, "COM-998", target.CompanyID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Target untouched either way.
	var count int64
	db.Model(&models.Company{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestMergeIntoSelfRejected(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), CreateInput{Name: "Solo Co"})
	require.NoError(t, err)

	_, err = svc.Merge(context.Background(), created.CompanyID, created.CompanyID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "Alpha GmbH", Country: "Germany"})
	require.NoError(t, err)
	inactive := models.CompanyInactive
	beta, err := svc.Create(ctx, CreateInput{Name: "Beta SARL", Country: "France"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, beta.CompanyID, UpdateInput{Status: &inactive})
	require.NoError(t, err)

	german, err := svc.List(ctx, ListFilter{Country: "germany"})
	require.NoError(t, err)
	require.Len(t, german, 1)
	assert.Equal(t, "Alpha GmbH", german[0].Name)

	inactiveOnly, err := svc.List(ctx, ListFilter{Status: "inactive"})
	require.NoError(t, err)
	require.Len(t, inactiveOnly, 1)
	assert.Equal(t, "Beta SARL", inactiveOnly[0].Name)

	bySearch, err := svc.List(ctx, ListFilter{Search: "alpha"})
	require.NoError(t, err)
	assert.Len(t, bySearch, 1)
}
