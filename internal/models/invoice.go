package models

import (
	"fmt"
	"time"
)

// Payment status values. "Not Done" is the explicit admin reset, distinct
// from the initial "Pending".
const (
	PaymentPending = "Pending"
	PaymentDone    = "Done"
	PaymentNotDone = "Not Done"
)

// Delivery status values: whether the document was handed to the customer.
const (
	DeliveryPending = "Pending"
	DeliverySent    = "Sent"
)

// Invoice is the header row of a billing event. InvoiceNo embeds the
// autogenerated ID, so it is filled in by a second update after the insert.
type Invoice struct {
	ID            uint   `gorm:"primaryKey"`
	InvoiceNo     string `gorm:"uniqueIndex"`
	Username      string `gorm:"not null;index"` // creator
	Customer      string `gorm:"not null"`
	CustomerEmail string
	CustomerPhone string
	Total         float64
	PaymentMode   string
	PaymentStatus string        `gorm:"not null;default:'Pending'"`
	Status        string        `gorm:"not null;default:'Pending'"` // delivery status
	EmailSent     bool          `gorm:"not null;default:false"`
	Items         []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time
}

type InvoiceItem struct {
	ID        uint   `gorm:"primaryKey"`
	InvoiceID uint   `gorm:"not null;index"`
	ItemName  string `gorm:"not null"`
	Qty       int
	Rate      float64
	Amount    float64
}

// InvoiceNumber derives the human-readable invoice number from a header ID.
func InvoiceNumber(id uint) string {
	return fmt.Sprintf("ANADI-INV-%06d", id)
}
