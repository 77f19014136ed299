package handlers

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/anadime/invoicer/httpx"
	"github.com/anadime/invoicer/internal/models"
	"github.com/anadime/invoicer/internal/notify"
	"github.com/anadime/invoicer/internal/services"
	pdfgen "github.com/anadime/invoicer/pdf"
	"github.com/anadime/invoicer/validation"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type InvoiceHandler struct {
	DB       *gorm.DB
	Svc      *services.InvoiceService
	Renderer *pdfgen.Renderer
	Mailer   *notify.Mailer

	log zerolog.Logger
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService, renderer *pdfgen.Renderer, mailer *notify.Mailer, log zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: svc, Renderer: renderer, Mailer: mailer, log: log}
}

// Form: GET / — the invoice entry form.
func (h *InvoiceHandler) Form(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "index", map[string]any{"User": user, "IsAdmin": user.IsAdmin()})
}

// Create: POST / — validate, persist, render the document, redirect to preview.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}

	violations := validation.Violations{}
	validation.Required("customer", r.FormValue("customer"), violations)
	if !violations.Empty() {
		renderTemplate(w, r, "index", map[string]any{"User": user, "IsAdmin": user.IsAdmin(),
			"Error": "customer is required", "Violations": violations})
		return
	}

	items, err := services.ParseLineItems(r.Form["item[]"], r.Form["qty[]"], r.Form["rate[]"])
	if err != nil {
		renderTemplate(w, r, "index", map[string]any{"User": user, "IsAdmin": user.IsAdmin(), "Error": err.Error()})
		return
	}
	if len(items) > pdfgen.MaxLineItems {
		renderTemplate(w, r, "index", map[string]any{"User": user, "IsAdmin": user.IsAdmin(),
			"Error": "too many line items, maximum is " + strconv.Itoa(pdfgen.MaxLineItems)})
		return
	}

	inv, err := h.Svc.Create(services.CreateInput{
		Creator:       user.Username,
		IsAdmin:       user.IsAdmin(),
		Customer:      r.FormValue("customer"),
		CustomerEmail: r.FormValue("customer_email"),
		CustomerPhone: r.FormValue("customer_phone"),
		PaymentMode:   r.FormValue("payment_mode"),
		PaymentStatus: r.FormValue("payment_status"),
		Items:         items,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			renderTemplate(w, r, "index", map[string]any{"User": user, "IsAdmin": user.IsAdmin(), "Error": err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("invoice create failed")
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_invoice", nil)
		return
	}

	if _, _, err := h.renderDocument(inv, inv.Items); err != nil {
		// The invoice row is committed; the document can be rebuilt on download.
		h.log.Error().Err(err).Str("invoice_no", inv.InvoiceNo).Msg("document render failed")
	}

	http.Redirect(w, r, "/preview/"+strconv.FormatUint(uint64(inv.ID), 10), http.StatusSeeOther)
}

// Preview: GET /preview/{id} — reads the invoice back from the store.
func (h *InvoiceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	inv, found := h.loadInvoice(r.PathValue("id"))
	if !found {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "preview", map[string]any{
		"User":        user,
		"Invoice":     inv,
		"Items":       inv.Items,
		"WhatsAppURL": notify.WhatsAppLink(inv.CustomerPhone, inv.Customer, inv.InvoiceNo),
	})
}

// History: GET /history — own invoices, or all of them for admins.
func (h *InvoiceHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.DB, r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	q := h.DB.Order("id desc")
	if !user.IsAdmin() {
		q = q.Where("username = ?", user.Username)
	}
	var invoices []models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
		return
	}
	renderTemplate(w, r, "history", map[string]any{"User": user, "Invoices": invoices})
}

// Download: GET /download/{id} — sends the email once, marks the invoice
// Sent, and streams the PDF as an attachment.
func (h *InvoiceHandler) Download(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(h.DB, r); !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	inv, found := h.loadInvoice(r.PathValue("id"))
	if !found {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}

	pdfPath := h.Renderer.PDFPath(inv.InvoiceNo)
	if _, err := os.Stat(pdfPath); err != nil {
		// Rebuild from stored rows; the document is deterministic per invoice.
		if pdfPath, _, err = h.renderDocument(inv, inv.Items); err != nil {
			h.log.Error().Err(err).Str("invoice_no", inv.InvoiceNo).Msg("document rebuild failed")
			httpx.JSONError(w, http.StatusInternalServerError, "document_unavailable", nil)
			return
		}
	}

	// At most one automatic email per invoice; the flag lives on the row so
	// it survives restarts and concurrent sessions.
	if !inv.EmailSent && h.Mailer.Enabled() && inv.CustomerEmail != "" {
		if err := h.Mailer.SendInvoice(r.Context(), inv.CustomerEmail, inv.Customer, pdfPath); err != nil {
			h.log.Warn().Err(err).Str("invoice_no", inv.InvoiceNo).Msg("invoice email failed")
		} else if err := h.DB.Model(inv).Update("email_sent", true).Error; err != nil {
			h.log.Warn().Err(err).Str("invoice_no", inv.InvoiceNo).Msg("email_sent flag update failed")
		}
	}

	if err := h.DB.Model(inv).Update("status", models.DeliverySent).Error; err != nil {
		h.log.Warn().Err(err).Str("invoice_no", inv.InvoiceNo).Msg("delivery status update failed")
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+inv.InvoiceNo+`.pdf"`)
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, pdfPath)
}

func (h *InvoiceHandler) loadInvoice(idStr string) (*models.Invoice, bool) {
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return nil, false
	}
	inv, err := h.Svc.Get(uint(id))
	if err != nil {
		return nil, false
	}
	return inv, true
}

func (h *InvoiceHandler) renderDocument(inv *models.Invoice, items []models.InvoiceItem) (string, string, error) {
	lines := make([]pdfgen.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pdfgen.Line{Name: it.ItemName, Qty: it.Qty, Rate: it.Rate, Amount: it.Amount})
	}
	return h.Renderer.Render(pdfgen.InvoiceData{
		InvoiceNo:   inv.InvoiceNo,
		Customer:    inv.Customer,
		Date:        inv.CreatedAt.Format("2006-01-02"),
		Items:       lines,
		Total:       inv.Total,
		PaymentDone: inv.PaymentStatus == models.PaymentDone,
	})
}
