package handlers

import (
	"net/http"

	"github.com/anadime/invoicer/auth"
	"github.com/anadime/invoicer/internal/models"
	"github.com/anadime/invoicer/view"

	"gorm.io/gorm"
)

// currentUser resolves the session's user row. The role lives in the store,
// not the cookie, so a role change takes effect on the next request.
func currentUser(db *gorm.DB, r *http.Request) (*models.User, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok || uid == 0 {
		return nil, false
	}
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// renderTemplate uses the shared view.Render so layout and funcs stay consistent.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name+".html", data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
