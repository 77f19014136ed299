// Package pdf renders the fixed-layout invoice document and its UPI
// payment QR code. All coordinates are points on an A4 portrait page,
// measured from the top-left corner.
package pdf

import (
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/phpdave11/gofpdf"
	"github.com/rs/zerolog"
)

// MaxLineItems is the row budget of the single fixed page. The item table
// starts at y=195 with 20pt rows and must stay clear of the payment block
// whose top rule sits 260pt above the page bottom.
const MaxLineItems = 18

// ErrTooManyItems rejects invoices that would overflow the fixed layout.
var ErrTooManyItems = errors.New("too many line items for single-page layout")

const (
	pageMargin = 40.0
	qrSize     = 240 // raster pixels of the generated PNG
)

// Line is one row of the item table.
type Line struct {
	Name   string
	Qty    int
	Rate   float64
	Amount float64
}

// InvoiceData is everything the renderer needs; callers map their storage
// models onto it so this package stays decoupled from persistence.
type InvoiceData struct {
	InvoiceNo   string
	Customer    string
	Date        string
	Items       []Line
	Total       float64
	PaymentDone bool
}

// Renderer writes `<invoiceNo>.pdf` and `<invoiceNo>_qr.png` into OutputDir.
// Paths are keyed by invoice number only, so re-rendering overwrites the
// previous files for that invoice.
type Renderer struct {
	OutputDir    string
	LogoPath     string
	MerchantVPA  string
	MerchantName string

	log zerolog.Logger
}

func NewRenderer(outputDir, logoPath, merchantVPA, merchantName string, log zerolog.Logger) *Renderer {
	return &Renderer{
		OutputDir:    outputDir,
		LogoPath:     logoPath,
		MerchantVPA:  merchantVPA,
		MerchantName: merchantName,
		log:          log,
	}
}

// PDFPath returns the deterministic document path for an invoice number.
func (r *Renderer) PDFPath(invoiceNo string) string {
	return filepath.Join(r.OutputDir, invoiceNo+".pdf")
}

// QRPath returns the deterministic QR image path for an invoice number.
func (r *Renderer) QRPath(invoiceNo string) string {
	return filepath.Join(r.OutputDir, invoiceNo+"_qr.png")
}

// PaymentURI builds the UPI payment request string. Key set and order are
// fixed; payment apps reject reordered queries.
func (r *Renderer) PaymentURI(total float64) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%.2f&cu=INR", r.MerchantVPA, r.MerchantName, total)
}

// Render produces the QR image and the PDF for one invoice. A missing logo
// or a failed QR encode degrade the document instead of failing it; only an
// unwritable output directory or a layout overflow are hard errors.
func (r *Renderer) Render(data InvoiceData) (pdfPath, qrPath string, err error) {
	if len(data.Items) > MaxLineItems {
		return "", "", ErrTooManyItems
	}
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	qrPath = r.QRPath(data.InvoiceNo)
	if qrErr := r.writeQR(qrPath, data.Total); qrErr != nil {
		r.log.Warn().Err(qrErr).Str("invoice_no", data.InvoiceNo).Msg("qr generation failed; rendering without payment code")
		qrPath = ""
	}

	pdfPath = r.PDFPath(data.InvoiceNo)
	if err := r.writePDF(pdfPath, qrPath, data); err != nil {
		return "", "", fmt.Errorf("render pdf: %w", err)
	}
	return pdfPath, qrPath, nil
}

func (r *Renderer) writeQR(path string, total float64) error {
	code, err := qr.Encode(r.PaymentURI(total), qr.M, qr.Auto)
	if err != nil {
		return err
	}
	scaled, err := barcode.Scale(code, qrSize, qrSize)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, scaled)
}

func (r *Renderer) writePDF(path, qrPath string, data InvoiceData) error {
	doc := gofpdf.New("P", "pt", "A4", "")
	w, h := doc.GetPageSize()
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	// Merchant header block. The logo is optional on disk.
	if r.LogoPath != "" {
		if _, statErr := os.Stat(r.LogoPath); statErr == nil {
			doc.ImageOptions(r.LogoPath, pageMargin, 30, 80, 50, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}
	doc.SetFont("Helvetica", "B", 16)
	doc.Text(130, 50, "Anadi Me Edsolutions (OPC) Private Limited")
	doc.SetFont("Helvetica", "", 9)
	doc.Text(130, 65, "H No. 7, Guru Sahay Lal Nagar, Ashiana, Patna - 800025")
	doc.Text(130, 78, "Phone: +91 9861006924 | Email: anadimeedsolutions@gmail.com")
	doc.Line(pageMargin, 90, w-pageMargin, 90)

	// Invoice details line.
	doc.SetFont("Helvetica", "B", 11)
	doc.Text(pageMargin, 120, "Invoice No: "+data.InvoiceNo)
	doc.Text(pageMargin, 135, "Invoice To: "+data.Customer)
	textRight(doc, w-pageMargin, 120, "Date: "+data.Date)

	// Item table at fixed column offsets.
	y := 170.0
	doc.Text(pageMargin, y, "Item")
	doc.Text(260, y, "Qty")
	doc.Text(320, y, "Rate")
	doc.Text(400, y, "Amount")
	doc.Line(pageMargin, y+5, w-pageMargin, y+5)

	y += 25
	doc.SetFont("Helvetica", "", 11)
	for _, it := range data.Items {
		doc.Text(pageMargin, y, it.Name)
		doc.Text(260, y, fmt.Sprintf("%d", it.Qty))
		doc.Text(320, y, fmt.Sprintf("%g", it.Rate))
		doc.Text(400, y, fmt.Sprintf("%.2f", it.Amount))
		y += 20
	}

	doc.SetFont("Helvetica", "B", 12)
	textRight(doc, 360, y+10, "Total:")
	doc.Text(380, y+10, fmt.Sprintf("Rs. %.2f", data.Total))

	// Fixed bottom payment block, anchored 140pt above the page bottom.
	paymentBase := h - 140

	doc.Line(pageMargin, paymentBase-120, w-pageMargin, paymentBase-120)
	doc.SetFont("Helvetica", "", 9)
	doc.Text(pageMargin, paymentBase-105, "(Not registered under GST)")

	if qrPath != "" {
		doc.ImageOptions(qrPath, pageMargin, paymentBase-120, 120, 120, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}
	doc.SetFont("Helvetica", "B", 10)
	doc.Text(pageMargin, paymentBase+15, "Scan to Pay")

	doc.SetFont("Helvetica", "B", 11)
	statusText := "You didn't give the payment."
	if data.PaymentDone {
		statusText = "Payment is done successfully. Thank you."
	}
	textCentered(doc, w/2, paymentBase+40, statusText)

	doc.SetFont("Helvetica", "B", 10)
	textRight(doc, w-pageMargin, paymentBase+60, "Authorized Signatory")
	doc.SetFont("Helvetica", "", 9)
	textRight(doc, w-pageMargin, paymentBase+75, "ANADI ME EDSOLUTIONS")

	return doc.OutputFileAndClose(path)
}

// textRight draws s ending at x (right-aligned baseline text).
func textRight(doc *gofpdf.Fpdf, x, y float64, s string) {
	doc.Text(x-doc.GetStringWidth(s), y, s)
}

// textCentered draws s centered on x.
func textCentered(doc *gofpdf.Fpdf, x, y float64, s string) {
	doc.Text(x-doc.GetStringWidth(s)/2, y, s)
}
