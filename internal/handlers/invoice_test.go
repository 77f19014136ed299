package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/anadime/invoicer/auth"
	"github.com/anadime/invoicer/internal/models"
	"github.com/anadime/invoicer/internal/notify"
	"github.com/anadime/invoicer/internal/services"
	pdfgen "github.com/anadime/invoicer/pdf"
	"github.com/anadime/invoicer/view"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Invoice{}, &models.InvoiceItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	view.ResetForTests()
	view.SetBaseDir("../../templates")
	return db
}

func seedUsers(t *testing.T, db *gorm.DB) (admin, regular models.User) {
	t.Helper()
	admin = models.User{Username: "boss", Password: "x", Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("admin: %v", err)
	}
	regular = models.User{Username: "alice", Password: "x", Role: models.RoleUser}
	if err := db.Create(&regular).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	return
}

func newInvoiceHandler(t *testing.T, db *gorm.DB) *InvoiceHandler {
	t.Helper()
	renderer := pdfgen.NewRenderer(t.TempDir(), "no-logo.png", "test@upi", "Test", zerolog.Nop())
	mailer := notify.NewMailer("smtp.example.com", 465, "", "", time.Second, zerolog.Nop())
	return NewInvoiceHandler(db, services.NewInvoiceService(db), renderer, mailer, zerolog.Nop())
}

func asUser(r *http.Request, u models.User) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), u.ID))
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func invoiceForm() url.Values {
	return url.Values{
		"customer":       {"Bob"},
		"customer_email": {"bob@example.com"},
		"customer_phone": {"911234567890"},
		"payment_mode":   {"UPI"},
		"item[]":         {"Pen", "Book"},
		"qty[]":          {"2", "1"},
		"rate[]":         {"10.0", "50.0"},
	}
}

func TestCreateInvoiceAndPreview(t *testing.T) {
	db := setupTestDB(t)
	_, user := seedUsers(t, db)
	h := newInvoiceHandler(t, db)

	w := httptest.NewRecorder()
	h.Create(w, asUser(postForm("/", invoiceForm()), user))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("want 303, got %d body=%s", w.Code, w.Body.String())
	}

	var inv models.Invoice
	if err := db.Preload("Items").First(&inv).Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if inv.Total != 70.0 || len(inv.Items) != 2 {
		t.Fatalf("unexpected invoice: total=%v items=%d", inv.Total, len(inv.Items))
	}
	if inv.InvoiceNo != models.InvoiceNumber(inv.ID) {
		t.Fatalf("invoice number %s does not embed id %d", inv.InvoiceNo, inv.ID)
	}
	if want := "/preview/" + strconv.Itoa(int(inv.ID)); w.Header().Get("Location") != want {
		t.Fatalf("want redirect to %s, got %s", want, w.Header().Get("Location"))
	}
	// The document exists after create.
	if _, err := os.Stat(h.Renderer.PDFPath(inv.InvoiceNo)); err != nil {
		t.Fatalf("pdf missing after create: %v", err)
	}

	// Preview reads back from the store.
	req := asUser(httptest.NewRequest(http.MethodGet, "/preview/"+strconv.Itoa(int(inv.ID)), nil), user)
	req.SetPathValue("id", strconv.Itoa(int(inv.ID)))
	pw := httptest.NewRecorder()
	h.Preview(pw, req)
	if pw.Code != http.StatusOK {
		t.Fatalf("preview want 200, got %d", pw.Code)
	}
	if !strings.Contains(pw.Body.String(), inv.InvoiceNo) {
		t.Fatalf("preview does not show invoice number")
	}
}

func TestCreateForcesPendingForNonAdmin(t *testing.T) {
	db := setupTestDB(t)
	admin, user := seedUsers(t, db)
	h := newInvoiceHandler(t, db)

	form := invoiceForm()
	form.Set("payment_status", "Done")

	w := httptest.NewRecorder()
	h.Create(w, asUser(postForm("/", form), user))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("want 303, got %d", w.Code)
	}
	var first models.Invoice
	db.Order("id desc").First(&first)
	if first.PaymentStatus != models.PaymentPending {
		t.Fatalf("non-admin status must be forced to Pending, got %s", first.PaymentStatus)
	}

	w = httptest.NewRecorder()
	h.Create(w, asUser(postForm("/", form), admin))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("want 303, got %d", w.Code)
	}
	var second models.Invoice
	db.Order("id desc").First(&second)
	if second.PaymentStatus != models.PaymentDone {
		t.Fatalf("admin status must be honored, got %s", second.PaymentStatus)
	}
}

func TestCreateRejectsMalformedNumbers(t *testing.T) {
	db := setupTestDB(t)
	_, user := seedUsers(t, db)
	h := newInvoiceHandler(t, db)

	form := invoiceForm()
	form["qty[]"] = []string{"two", "1"}

	w := httptest.NewRecorder()
	h.Create(w, asUser(postForm("/", form), user))
	if w.Code != http.StatusOK {
		t.Fatalf("invalid input should re-render the form, got %d", w.Code)
	}
	var count int64
	db.Model(&models.Invoice{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected request must not persist an invoice")
	}
}

func TestPreviewUnknownInvoiceRedirects(t *testing.T) {
	db := setupTestDB(t)
	_, user := seedUsers(t, db)
	h := newInvoiceHandler(t, db)

	req := asUser(httptest.NewRequest(http.MethodGet, "/preview/999", nil), user)
	req.SetPathValue("id", "999")
	w := httptest.NewRecorder()
	h.Preview(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("want redirect for unknown invoice, got %d", w.Code)
	}
}

func TestDownloadUnknownInvoiceIs404(t *testing.T) {
	db := setupTestDB(t)
	_, user := seedUsers(t, db)
	h := newInvoiceHandler(t, db)

	req := asUser(httptest.NewRequest(http.MethodGet, "/download/999", nil), user)
	req.SetPathValue("id", "999")
	w := httptest.NewRecorder()
	h.Download(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", w.Code)
	}
	// No stray document may appear for a nonexistent invoice.
	entries, err := os.ReadDir(h.Renderer.OutputDir)
	if err == nil && len(entries) != 0 {
		t.Fatalf("no files may be created for a missing invoice, found %d", len(entries))
	}
}

func TestDownloadWithoutEmailCredentials(t *testing.T) {
	db := setupTestDB(t)
	_, user := seedUsers(t, db)
	h := newInvoiceHandler(t, db)

	w := httptest.NewRecorder()
	h.Create(w, asUser(postForm("/", invoiceForm()), user))
	var inv models.Invoice
	db.First(&inv)

	req := asUser(httptest.NewRequest(http.MethodGet, "/download/"+strconv.Itoa(int(inv.ID)), nil), user)
	req.SetPathValue("id", strconv.Itoa(int(inv.ID)))
	dw := httptest.NewRecorder()
	h.Download(dw, req)
	if dw.Code != http.StatusOK {
		t.Fatalf("download want 200, got %d", dw.Code)
	}
	if ct := dw.Header().Get("Content-Type"); !strings.Contains(ct, "application/pdf") {
		t.Fatalf("want pdf content type, got %s", ct)
	}

	db.First(&inv, inv.ID)
	if inv.Status != models.DeliverySent {
		t.Fatalf("download must flip delivery status to Sent, got %s", inv.Status)
	}
	if inv.EmailSent {
		t.Fatalf("email_sent must stay false when credentials are absent")
	}
}

func TestDownloadRebuildsMissingDocument(t *testing.T) {
	db := setupTestDB(t)
	_, user := seedUsers(t, db)
	h := newInvoiceHandler(t, db)

	w := httptest.NewRecorder()
	h.Create(w, asUser(postForm("/", invoiceForm()), user))
	var inv models.Invoice
	db.First(&inv)

	if err := os.Remove(h.Renderer.PDFPath(inv.InvoiceNo)); err != nil {
		t.Fatalf("remove pdf: %v", err)
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/download/"+strconv.Itoa(int(inv.ID)), nil), user)
	req.SetPathValue("id", strconv.Itoa(int(inv.ID)))
	dw := httptest.NewRecorder()
	h.Download(dw, req)
	if dw.Code != http.StatusOK {
		t.Fatalf("download should rebuild the document, got %d", dw.Code)
	}
	if _, err := os.Stat(h.Renderer.PDFPath(inv.InvoiceNo)); err != nil {
		t.Fatalf("pdf not rebuilt: %v", err)
	}
}

func TestHistoryScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	admin, user := seedUsers(t, db)
	h := newInvoiceHandler(t, db)

	for _, u := range []models.User{admin, user} {
		w := httptest.NewRecorder()
		h.Create(w, asUser(postForm("/", invoiceForm()), u))
		if w.Code != http.StatusSeeOther {
			t.Fatalf("create as %s: got %d", u.Username, w.Code)
		}
	}

	w := httptest.NewRecorder()
	h.History(w, asUser(httptest.NewRequest(http.MethodGet, "/history", nil), user))
	if w.Code != http.StatusOK {
		t.Fatalf("history want 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), ">boss<") {
		t.Fatalf("non-admin history must not include other users' invoices")
	}

	w = httptest.NewRecorder()
	h.History(w, asUser(httptest.NewRequest(http.MethodGet, "/history", nil), admin))
	body := w.Body.String()
	if !strings.Contains(body, ">boss<") || !strings.Contains(body, ">alice<") {
		t.Fatalf("admin history must include all invoices")
	}
}
