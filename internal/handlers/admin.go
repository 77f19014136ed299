package handlers

import (
	"net/http"
	"os"
	"strconv"

	"github.com/anadime/invoicer/httpx"
	"github.com/anadime/invoicer/internal/models"
	"github.com/anadime/invoicer/internal/notify"
	pdfgen "github.com/anadime/invoicer/pdf"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type AdminHandler struct {
	DB       *gorm.DB
	Renderer *pdfgen.Renderer
	Mailer   *notify.Mailer

	log zerolog.Logger
}

func NewAdminHandler(db *gorm.DB, renderer *pdfgen.Renderer, mailer *notify.Mailer, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{DB: db, Renderer: renderer, Mailer: mailer, log: log}
}

// requireAdmin short-circuits before any side effect. Non-admin sessions get
// a 403, missing sessions a login redirect.
func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	if !user.IsAdmin() {
		httpx.JSONError(w, http.StatusForbidden, "access_denied", nil)
		return nil, false
	}
	return user, true
}

// Dashboard: GET /admin — users, all invoices, and a few aggregates.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	var users []models.User
	h.DB.Order("id").Find(&users)
	var invoices []models.Invoice
	h.DB.Order("id desc").Find(&invoices)

	var pendingCount, sentCount int64
	h.DB.Model(&models.Invoice{}).Where("status = ?", models.DeliveryPending).Count(&pendingCount)
	h.DB.Model(&models.Invoice{}).Where("status = ?", models.DeliverySent).Count(&sentCount)
	var revenue float64
	h.DB.Model(&models.Invoice{}).Select("COALESCE(SUM(total), 0)").Scan(&revenue)

	renderTemplate(w, r, "admin", map[string]any{
		"User":         user,
		"Users":        users,
		"Invoices":     invoices,
		"UserCount":    len(users),
		"InvoiceCount": len(invoices),
		"PendingCount": pendingCount,
		"SentCount":    sentCount,
		"Revenue":      revenue,
	})
}

// SetPaymentStatus returns a handler flipping payment_status to the given value.
func (h *AdminHandler) SetPaymentStatus(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.requireAdmin(w, r); !ok {
			return
		}
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || id <= 0 {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
		if err := h.DB.Model(&models.Invoice{}).Where("id = ?", id).Update("payment_status", status).Error; err != nil {
			h.log.Error().Err(err).Int("invoice_id", id).Msg("payment status update failed")
		}
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

// Delete: GET /delete/{id} — removes the invoice, its items, and both
// generated files. Items go inside the same transaction as the header, so
// the cascade holds even without foreign key enforcement in the store.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	var inv models.Invoice
	if err := h.DB.First(&inv, id).Error; err == nil {
		err := h.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(&inv).Error
		})
		if err != nil {
			h.log.Error().Err(err).Uint("invoice_id", inv.ID).Msg("invoice delete failed")
		} else if inv.InvoiceNo != "" {
			_ = os.Remove(h.Renderer.PDFPath(inv.InvoiceNo))
			_ = os.Remove(h.Renderer.QRPath(inv.InvoiceNo))
		}
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// ResendEmail: GET /resend_email/{id} — explicit resend, best-effort, and
// deliberately ignoring the one-shot email_sent flag.
func (h *AdminHandler) ResendEmail(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	var inv models.Invoice
	if err := h.DB.First(&inv, id).Error; err == nil && inv.CustomerEmail != "" {
		if err := h.Mailer.SendInvoice(r.Context(), inv.CustomerEmail, inv.Customer, h.Renderer.PDFPath(inv.InvoiceNo)); err != nil {
			h.log.Warn().Err(err).Str("invoice_no", inv.InvoiceNo).Msg("resend email failed")
		}
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// ResendWhatsApp: GET /resend_whatsapp/{id} — 302 to the prefilled chat link.
func (h *AdminHandler) ResendWhatsApp(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	var inv models.Invoice
	if err := h.DB.First(&inv, id).Error; err != nil {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, notify.WhatsAppLink(inv.CustomerPhone, inv.Customer, inv.InvoiceNo), http.StatusFound)
}
