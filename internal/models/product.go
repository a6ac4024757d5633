package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry that can be ordered.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(100)"`
	Description string          `json:"description" gorm:"type:varchar(500)"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
