package fakeapi

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// Passwords are hashed at the lowest cost to keep tests fast.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

type signupBody struct {
	Username        string `json:"username"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Username == "" || body.Password == "" || body.Password != body.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "invalid signup request")
		return
	}

	hash, err := hashPassword(body.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[body.Username]; exists {
		writeError(w, http.StatusConflict, "username already registered")
		return
	}
	s.users[body.Username] = user{Username: body.Username, Name: body.Name, PasswordHash: hash}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[body.Username]
	s.mu.Unlock()
	if !ok || !checkPasswordHash(body.Password, u.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.mu.Lock()
	access, refresh := s.issueLocked(u.Username, u.Name)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access, "refreshToken": refresh})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	s.refreshCalls++
	s.refreshBodies = append(s.refreshBodies, body.RefreshToken)
	hold := s.refreshHold
	s.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.refresh[body.RefreshToken]
	if !ok || s.refreshFail {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	delete(s.refresh, body.RefreshToken)

	name := s.users[username].Name
	access, refresh := s.issueLocked(username, name)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access, "refreshToken": refresh})
}
