// Package models contains the persistent data structures for the
// supply-chain back office: companies and their stores, the product
// catalog, warehouse storage, inventory, sales and analytics records.
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CompanyStatus is the lifecycle state of a company.
type CompanyStatus string

const (
	CompanyActive   CompanyStatus = "active"
	CompanyInactive CompanyStatus = "inactive"
	CompanyPending  CompanyStatus = "pending"
)

// Company represents a company or one of its branches. Companies form a
// hierarchy through the optional Parent link; deleting a parent clears
// the link on its subsidiaries rather than cascading.
type Company struct {
	CompanyID           string        `json:"id" gorm:"primaryKey;size:20"`
	Name                string        `json:"name" gorm:"not null;size:200"`
	ParentID            *string       `json:"parent_id" gorm:"size:20;index"`
	Parent              *Company      `json:"parent,omitempty" gorm:"foreignKey:ParentID;references:CompanyID;constraint:OnDelete:SET NULL"`
	Subsidiaries        []Company     `json:"subsidiaries,omitempty" gorm:"foreignKey:ParentID;references:CompanyID"`
	Country             string        `json:"country" gorm:"size:100"`
	City                string        `json:"city" gorm:"size:100"`
	Status              CompanyStatus `json:"status" gorm:"size:20;default:active"`
	OwnershipPercentage int           `json:"ownership" gorm:"default:100;check:ownership_percentage >= 0 AND ownership_percentage <= 100"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// Store is a physical store owned by exactly one company. Country and
/// city are denormalized: a holding may operate stores outside its own
// country.
type Store struct {
	StoreID   string    `json:"id" gorm:"primaryKey;size:20"`
	CompanyID string    `json:"company_id" gorm:"size:20;not null;index"`
	Company   *Company  `json:"company,omitempty" gorm:"foreignKey:CompanyID;references:CompanyID;constraint:OnDelete:CASCADE"`
	Name      string    `json:"name" gorm:"not null;size:200"`
	City      string    `json:"city" gorm:"size:100"`
	Country   string    `json:"country" gorm:"size:100"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
}

// Category is a flat, name-unique product grouping.
type Category struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Description string `json:"description"`
}

// Product is a catalog entry keyed by SKU. Stock status is not stored
// here; it is derived from inventory quantity at query time (see the
// inventory package).
type Product struct {
	SKU         string          `json:"sku" gorm:"primaryKey;size:50"`
	Name        string          `json:"name" gorm:"not null;size:200"`
	CategoryID  *uint           `json:"category_id" gorm:"index"`
	Category    *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Warehouse is a storage facility attached to a store.
type Warehouse struct {
	WarehouseID string `json:"id" gorm:"primaryKey;size:20"`
	StoreID     string `json:"store_id" gorm:"size:20;not null;index"`
	Store       *Store `json:"store,omitempty" gorm:"foreignKey:StoreID;references:StoreID;constraint:OnDelete:CASCADE"`
	Name        string `json:"name" gorm:"not null;size:200"`
}

// WarehouseLocation is a physical slot (aisle/shelf/box) holding a
// quantity of one product inside a warehouse. The slot is unique per
// (warehouse, product, aisle, shelf, box).
type WarehouseLocation struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	WarehouseID string     `json:"warehouse_id" gorm:"size:20;not null;uniqueIndex:idx_wh_slot"`
	Warehouse   *Warehouse `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID;references:WarehouseID;constraint:OnDelete:CASCADE"`
	ProductSKU  string     `json:"product_sku" gorm:"size:50;not null;uniqueIndex:idx_wh_slot"`
	Product     *Product   `json:"product,omitempty" gorm:"foreignKey:ProductSKU;references:SKU;constraint:OnDelete:CASCADE"`
	Aisle       string     `json:"aisle" gorm:"size:10;uniqueIndex:idx_wh_slot"`
	Shelf       string     `json:"shelf" gorm:"size:10;uniqueIndex:idx_wh_slot"`
	Box         string     `json:"box" gorm:"size:10;uniqueIndex:idx_wh_slot"`
	Quantity    int        `json:"quantity" gorm:"default:0"`
	LastUpdated time.Time  `json:"last_updated" gorm:"autoUpdateTime"`
}

// Inventory is the store-level quantity of record for a product. It is
// independent of WarehouseLocation granularity; the two are seeded
// separately and may diverge.
type Inventory struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ProductSKU    string    `json:"product_sku" gorm:"size:50;not null;uniqueIndex:idx_product_store"`
	Product       *Product  `json:"product,omitempty" gorm:"foreignKey:ProductSKU;references:SKU;constraint:OnDelete:CASCADE"`
	StoreID       string    `json:"store_id" gorm:"size:20;not null;uniqueIndex:idx_product_store"`
	Store         *Store    `json:"store,omitempty" gorm:"foreignKey:StoreID;references:StoreID;constraint:OnDelete:CASCADE"`
	Quantity      int       `json:"quantity" gorm:"default:0"`
	LastRestocked time.Time `json:"last_restocked" gorm:"autoUpdateTime"`
}

// Sale is an immutable record of a completed transaction.
type Sale struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	ProductSKU  string          `json:"product_sku" gorm:"size:50;not null;index"`
	Product     *Product        `json:"product,omitempty" gorm:"foreignKey:ProductSKU;references:SKU;constraint:OnDelete:CASCADE"`
	StoreID     string          `json:"store_id" gorm:"size:20;not null;index"`
	Store       *Store          `json:"store,omitempty" gorm:"foreignKey:StoreID;references:StoreID;constraint:OnDelete:CASCADE"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2)"`
	SaleDate    time.Time       `json:"sale_date"`
	Month       string          `json:"month" gorm:"size:20"`
	Year        int             `json:"year"`
}

// BeforeCreate fills the derived month/year labels from the transaction
// timestamp when the caller did not supply them.
func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	if s.SaleDate.IsZero() {
		s.SaleDate = time.Now()
	}
	if s.Month == "" {
		s.Month = s.SaleDate.Format("Jan")
	}
	if s.Year == 0 {
		s.Year = s.SaleDate.Year()
	}
	return nil
}

// DashboardMetrics is one day's worth of headline dashboard numbers.
type DashboardMetrics struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	MetricDate      time.Time       `json:"metric_date" gorm:"type:date;uniqueIndex"`
	TotalRevenue    decimal.Decimal `json:"total_revenue" gorm:"type:decimal(12,2)"`
	TotalOrders     int             `json:"total_orders"`
	TotalProducts   int             `json:"total_products"`
	ActiveCustomers int             `json:"active_customers"`
}

// Sector groups competitors for the sales-analytics ranking.
type Sector struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Description string `json:"description"`
}

// Competitor is a ranked company (ours or a rival) within a sector.
type Competitor struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"not null;size:200"`
	SectorID     uint            `json:"sector_id" gorm:"index"`
	Sector       *Sector         `json:"sector,omitempty" gorm:"foreignKey:SectorID"`
	Country      string          `json:"country" gorm:"size:100"`
	RevenueYTD   decimal.Decimal `json:"revenue_ytd" gorm:"type:decimal(14,2)"`
	ProfitYTD    decimal.Decimal `json:"profit_ytd" gorm:"type:decimal(14,2)"`
	MarketShare  decimal.Decimal `json:"market_share" gorm:"type:decimal(5,2)"`
	IsOurCompany bool            `json:"is_our_company" gorm:"default:false"`
}

// SalesMetrics is a monthly revenue/profit figure for a company, used
// to compute year-to-date totals.
type SalesMetrics struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	CompanyID string          `json:"company_id" gorm:"size:20;not null;index"`
	Company   *Company        `json:"company,omitempty" gorm:"foreignKey:CompanyID;references:CompanyID;constraint:OnDelete:CASCADE"`
	Month     string          `json:"month" gorm:"size:20"`
	Year      int             `json:"year" gorm:"index"`
	Revenue   decimal.Decimal `json:"revenue" gorm:"type:decimal(14,2)"`
	Profit    decimal.Decimal `json:"profit" gorm:"type:decimal(14,2)"`
}

// ProductSales aggregates yearly units sold per company and product.
type ProductSales struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	CompanyID  string          `json:"company_id" gorm:"size:20;not null;index"`
	ProductSKU string          `json:"product_sku" gorm:"size:50;not null"`
	Product    *Product        `json:"product,omitempty" gorm:"foreignKey:ProductSKU;references:SKU;constraint:OnDelete:CASCADE"`
	Year       int             `json:"year" gorm:"index"`
	UnitsSold  int             `json:"units_sold"`
	Revenue    decimal.Decimal `json:"revenue" gorm:"type:decimal(14,2)"`
}
