package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"techhourse/internal/catalog"
	"techhourse/internal/store"
)

// handleChat runs one chat turn and broadcasts its outcome
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	turn := s.chat.Send(r.Context(), req.Message)
	s.wsHub.Broadcast(EventChatTurn, turn)
	writeJSON(w, http.StatusOK, turn)
}

// handleCompare asks for purchase advice on the selected phones
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneIDs []int64 `json:"phone_ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	phones, err := s.store.GetPhones(r.Context(), req.PhoneIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	turn, err := s.chat.Compare(r.Context(), phones)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.wsHub.Broadcast(EventChatTurn, turn)
	writeJSON(w, http.StatusOK, turn)
}

// handlePrompt shows the system prompt the next turn would use
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"prompt": s.chat.SystemPrompt(r.Context())})
}

// handlePhones lists the catalog, optionally filtered by brand or a search term
func (s *Server) handlePhones(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	brand := strings.TrimSpace(r.URL.Query().Get("brand"))
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		phones []catalog.Phone
		err    error
	)
	switch {
	case brand != "":
		phones, err = s.store.PhonesByBrand(ctx, brand)
	case query != "":
		phones, err = s.store.SearchPhones(ctx, query)
	default:
		phones, err = s.store.ListPhones(ctx)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if phones == nil {
		phones = []catalog.Phone{}
	}
	writeJSON(w, http.StatusOK, phones)
}

type phoneDetail struct {
	catalog.Phone
	Favorite bool `json:"favorite"`
}

// handlePhone returns one phone. A view by a logged-in user is added to
// their history.
func (s *Server) handlePhone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	phone, err := s.store.GetPhone(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	detail := phoneDetail{Phone: *phone}
	if user := CurrentUser(ctx); user != nil {
		if err := s.store.RecordView(ctx, user.ID, id, s.config.HistoryMaxEntries); err != nil {
			s.logger.WithContext("phone_id", id).Warn("failed to record view: %v", err)
		}
		if detail.Favorite, err = s.store.IsFavorite(ctx, user.ID, id); err != nil {
			s.logger.WithContext("phone_id", id).Warn("failed to check favorite: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleBrands lists the distinct brands in the catalog
func (s *Server) handleBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := s.store.Brands(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if brands == nil {
		brands = []string{}
	}
	writeJSON(w, http.StatusOK, brands)
}

// handleReload reimports the catalog file
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	n, err := s.loader.Reload(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.wsHub.Broadcast(EventCatalogReloaded, map[string]int{"count": n})
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// handleRecordBehavior stores a new usage snapshot
func (s *Server) handleRecordBehavior(w http.ResponseWriter, r *http.Request) {
	var usage map[string]string
	if err := decodeJSON(w, r, &usage); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.recorder.Record(r.Context(), usage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// handleLatestBehavior returns the newest snapshot
func (s *Server) handleLatestBehavior(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.LatestBehavior(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if snap == nil {
		s.writeError(w, r, fmt.Errorf("behavior snapshot: %w", store.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
	}
	return id, nil
}
