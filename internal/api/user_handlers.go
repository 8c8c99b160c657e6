package api

import (
	"net/http"

	"techhourse/internal/catalog"
	"techhourse/internal/store"
)

// The handlers below run behind requireUser, so CurrentUser is never nil.

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	phones, err := s.store.ListFavorites(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if phones == nil {
		phones = []catalog.Phone{}
	}
	writeJSON(w, http.StatusOK, phones)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "phoneID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.AddFavorite(r.Context(), CurrentUser(r.Context()).ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "phoneID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.RemoveFavorite(r.Context(), CurrentUser(r.Context()).ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHistory returns the most recent views, newest first. ?all=1 lifts
// the display limit up to the retention cap.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.config.HistoryDisplayLimit
	if r.URL.Query().Get("all") == "1" {
		limit = s.config.HistoryMaxEntries
	}
	entries, err := s.store.RecentHistory(r.Context(), CurrentUser(r.Context()).ID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []store.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearHistory(r.Context(), CurrentUser(r.Context()).ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "phoneID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteHistory(r.Context(), CurrentUser(r.Context()).ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
