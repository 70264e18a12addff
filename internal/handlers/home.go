package handlers

import (
	"net/http"
)

type HomeHandler struct {
	Sessions *SessionAuth
}

// Index sends an authenticated visitor to the creation page and everyone
// else to the login page.
func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	if h.Sessions.CurrentUser(r) != nil {
		http.Redirect(w, r, "/payment/create", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}
