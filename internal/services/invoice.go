package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anadime/invoicer/internal/models"

	"gorm.io/gorm"
)

// InvoiceService encapsulates invoice creation: line parsing, totals, and
// the transactional create-then-number persistence sequence.
type InvoiceService struct {
	DB *gorm.DB
}

func NewInvoiceService(db *gorm.DB) *InvoiceService { return &InvoiceService{DB: db} }

// LineItem is one parsed charge line. Amount is derived, never supplied.
type LineItem struct {
	Name   string
	Qty    int
	Rate   float64
	Amount float64
}

// CreateInput carries everything the builder needs; the caller resolves the
// session so the admin-only payment-status override stays explicit here
// instead of hiding in global state.
type CreateInput struct {
	Creator       string
	IsAdmin       bool
	Customer      string
	CustomerEmail string
	CustomerPhone string
	PaymentMode   string
	PaymentStatus string
	Items         []LineItem
}

// ParseLineItems converts the parallel item[]/qty[]/rate[] form fields into
// line items. Mismatched lengths, unparseable numbers, and negative values
// all reject as ErrInvalidInput. Rows with every field blank are skipped so
// an untouched spare form row does not sink the request.
func ParseLineItems(names, qtys, rates []string) ([]LineItem, error) {
	if len(names) != len(qtys) || len(names) != len(rates) {
		return nil, fmt.Errorf("%w: mismatched item field counts", ErrInvalidInput)
	}
	items := make([]LineItem, 0, len(names))
	for i := range names {
		name := strings.TrimSpace(names[i])
		qs := strings.TrimSpace(qtys[i])
		rs := strings.TrimSpace(rates[i])
		if name == "" && qs == "" && rs == "" {
			continue
		}
		qty, err := strconv.Atoi(qs)
		if err != nil {
			return nil, fmt.Errorf("%w: qty %q is not a number", ErrInvalidInput, qtys[i])
		}
		rate, err := strconv.ParseFloat(rs, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: rate %q is not a number", ErrInvalidInput, rates[i])
		}
		if qty < 0 || rate < 0 {
			return nil, fmt.Errorf("%w: qty and rate must not be negative", ErrInvalidInput)
		}
		items = append(items, LineItem{Name: name, Qty: qty, Rate: rate, Amount: float64(qty) * rate})
	}
	return items, nil
}

// Total sums the line amounts. Amounts stay float64; two-decimal rounding
// happens at render time only.
func Total(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Amount
	}
	return total
}

// Create persists the invoice header and its items in one transaction.
// The invoice number embeds the autogenerated row id, so the header is
// inserted first and updated with its number before the items go in; a
// failure anywhere rolls the whole sequence back.
func (s *InvoiceService) Create(in CreateInput) (*models.Invoice, error) {
	if strings.TrimSpace(in.Customer) == "" {
		return nil, fmt.Errorf("%w: customer is required", ErrInvalidInput)
	}

	status := in.PaymentStatus
	if !in.IsAdmin {
		// Only admins may assert a payment status at creation.
		status = models.PaymentPending
	}
	switch status {
	case models.PaymentPending, models.PaymentDone, models.PaymentNotDone:
	default:
		status = models.PaymentPending
	}

	inv := models.Invoice{
		Username:      in.Creator,
		Customer:      in.Customer,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		PaymentMode:   in.PaymentMode,
		PaymentStatus: status,
		Status:        models.DeliveryPending,
		Total:         Total(in.Items),
		CreatedAt:     time.Now(),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		inv.InvoiceNo = models.InvoiceNumber(inv.ID)
		if err := tx.Model(&models.Invoice{}).Where("id = ?", inv.ID).Update("invoice_no", inv.InvoiceNo).Error; err != nil {
			return err
		}
		if len(in.Items) == 0 {
			return nil
		}
		rows := make([]models.InvoiceItem, 0, len(in.Items))
		for _, it := range in.Items {
			rows = append(rows, models.InvoiceItem{
				InvoiceID: inv.ID,
				ItemName:  it.Name,
				Qty:       it.Qty,
				Rate:      it.Rate,
				Amount:    it.Amount,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		inv.Items = rows
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return &inv, nil
}

// Get loads an invoice header with its items.
func (s *InvoiceService) Get(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.DB.Preload("Items").First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}
