// Package database opens the database connection and keeps the schema
// migrated.
package database

import (
	"fmt"

	"github.com/meridian/supplyhub/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens a PostgreSQL connection from a DSN.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the application uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Permission{},
		&models.Role{},
		&models.UserRole{},
		&models.AuditLog{},
		&models.Notification{},
		&models.Company{},
		&models.Store{},
		&models.Category{},
		&models.Product{},
		&models.Warehouse{},
		&models.WarehouseLocation{},
		&models.Inventory{},
		&models.Sale{},
		&models.DashboardMetrics{},
		&models.Sector{},
		&models.Competitor{},
		&models.SalesMetrics{},
		&models.ProductSales{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.GeneratedReport{},
		&models.AgentConfig{},
	)
}
