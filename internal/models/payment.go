package models

import "time"

// Payment records one transaction outcome reported by the payment provider.
type Payment struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	OrderID       string    `json:"order_id" gorm:"type:varchar(36);index;not null"`
	TransactionID int64     `json:"transaction_id" gorm:"uniqueIndex;not null"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency" gorm:"type:varchar(8)"`
	Success       bool      `json:"success"`
	Payload       string    `json:"-" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
}
