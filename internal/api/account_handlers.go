package api

import (
	"net/http"
	"strings"

	"techhourse/internal/account"
)

// handleRegister creates an account
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req account.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.accounts.Register(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

type credentials struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// handleLogin makes the account the current user
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.accounts.Login(r.Context(), req.PhoneNumber, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleLogout clears the current user
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Logout(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCurrent returns the logged-in account
func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	a := CurrentUser(r.Context())
	if a == nil {
		s.writeError(w, r, account.ErrNotLoggedIn)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleSecurityQuestion returns the question registered for ?phone=
func (s *Server) handleSecurityQuestion(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	q, err := s.accounts.SecurityQuestion(r.Context(), phone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"security_question": q})
}

// handleResetPassword sets a new password after the security answer checks out
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber    string `json:"phone_number"`
		SecurityAnswer string `json:"security_answer"`
		NewPassword    string `json:"new_password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.accounts.ResetPassword(r.Context(), req.PhoneNumber, req.SecurityAnswer, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChangePassword replaces the current user's password
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.accounts.ChangePassword(r.Context(), req.OldPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateSecurity replaces the current user's security question
func (s *Server) handleUpdateSecurity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password         string `json:"password"`
		SecurityQuestion string `json:"security_question"`
		SecurityAnswer   string `json:"security_answer"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.accounts.UpdateSecurity(r.Context(), req.Password, req.SecurityQuestion, req.SecurityAnswer); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteAccount removes the current user after confirming the password
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.accounts.Delete(r.Context(), req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
