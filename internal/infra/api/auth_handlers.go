package api

import (
	"net/http"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
)

type telegramAuthRequest struct {
	TelegramID  int64  `json:"telegram_id"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *Server) handleAuthTelegram(w http.ResponseWriter, r *http.Request) {
	var req telegramAuthRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, tok, err := s.auth.AuthenticateTelegram(r.Context(), req.TelegramID, model.UserProfile{
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Username:    req.Username,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: tok, User: user})
}

func (s *Server) handleAuthVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	claims, err := s.auth.Verify(req.Token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"valid": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":       true,
		"user_id":     claims.UserID(),
		"telegram_id": claims.TelegramID,
		"expires_at":  claims.ExpiresAt,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// currentUser loads the token's user and refuses blocked accounts.
func (s *Server) currentUser(r *http.Request) (*model.User, error) {
	c := claimsFrom(r.Context())
	if c == nil {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.users.Get(r.Context(), c.UserID())
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, domain.ErrUserBlocked
	}
	return user, nil
}
