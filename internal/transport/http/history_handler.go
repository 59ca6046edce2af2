package http

import (
	"encoding/json"
	"log"
	"net/http"

	"persona-service/internal/app"
)

// HistoryHandler serves an authenticated owner's reconciled assessment
// history. Identity arrives as headers set by the upstream auth layer; this
// service never validates credentials itself.
type HistoryHandler struct {
	reconciler *app.Reconciler
}

func NewHistoryHandler(reconciler *app.Reconciler) *HistoryHandler {
	return &HistoryHandler{reconciler: reconciler}
}

// ServeHistory handles GET /history.
func (h *HistoryHandler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Header.Get("X-Owner-Id")
	email := r.Header.Get("X-Owner-Email")
	if ownerID == "" || email == "" {
		http.Error(w, "missing owner identity", http.StatusUnauthorized)
		return
	}

	records, err := h.reconciler.ListForOwner(r.Context(), ownerID, email)
	if err != nil {
		// No fabricated history: the client shows "try again" and the
		// respondent can still take a new assessment.
		log.Printf("list history for owner %s: %v", ownerID, err)
		http.Error(w, "history unavailable, try again", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

// ServeAuthEvent handles POST /auth/event, the hook the identity provider
// calls after a sign-in so anonymous records get claimed right away.
func (h *HistoryHandler) ServeAuthEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ownerID := r.Header.Get("X-Owner-Id")
	email := r.Header.Get("X-Owner-Email")
	if ownerID == "" || email == "" {
		http.Error(w, "missing owner identity", http.StatusUnauthorized)
		return
	}

	linked, err := h.reconciler.LinkByEmail(r.Context(), ownerID, email)
	if err != nil {
		// Linking is retryable and self-heals on the next history read.
		log.Printf("link records for owner %s: %v", ownerID, err)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"linked": linked})
}
