package server

import (
	"net/http"
	"time"

	"github.com/anadime/invoicer/auth"
	"github.com/anadime/invoicer/httpx"
	"github.com/anadime/invoicer/internal/handlers"
	"github.com/anadime/invoicer/internal/logger"
	"github.com/anadime/invoicer/internal/notify"
	"github.com/anadime/invoicer/internal/services"
	pdfgen "github.com/anadime/invoicer/pdf"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Deps bundles the shared collaborators the routes need.
type Deps struct {
	DB       *gorm.DB
	Renderer *pdfgen.Renderer
	Mailer   *notify.Mailer
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()
	log := logger.WithComponent("http")

	// Health endpoints
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := d.DB.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(d.DB)
	authHandler.Register(mux)

	ih := handlers.NewInvoiceHandler(d.DB, services.NewInvoiceService(d.DB), d.Renderer, d.Mailer, logger.WithComponent("invoice"))
	mux.Handle("GET /{$}", auth.RequireAuth(http.HandlerFunc(ih.Form)))
	mux.Handle("POST /{$}", auth.RequireAuth(http.HandlerFunc(ih.Create)))
	mux.Handle("GET /preview/{id}", auth.RequireAuth(http.HandlerFunc(ih.Preview)))
	mux.Handle("GET /history", auth.RequireAuth(http.HandlerFunc(ih.History)))
	mux.Handle("GET /download/{id}", auth.RequireAuth(http.HandlerFunc(ih.Download)))

	ah := handlers.NewAdminHandler(d.DB, d.Renderer, d.Mailer, logger.WithComponent("admin"))
	mux.Handle("GET /admin", auth.RequireAuth(http.HandlerFunc(ah.Dashboard)))
	mux.Handle("GET /payment_done/{id}", auth.RequireAuth(ah.SetPaymentStatus("Done")))
	mux.Handle("GET /payment_not_done/{id}", auth.RequireAuth(ah.SetPaymentStatus("Not Done")))
	mux.Handle("GET /delete/{id}", auth.RequireAuth(http.HandlerFunc(ah.Delete)))
	mux.Handle("GET /resend_email/{id}", auth.RequireAuth(http.HandlerFunc(ah.ResendEmail)))
	mux.Handle("GET /resend_whatsapp/{id}", auth.RequireAuth(http.HandlerFunc(ah.ResendWhatsApp)))

	// Static assets (logo, CSS)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	return auth.Middleware(withRecover(withLogging(log, mux)))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func withLogging(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
