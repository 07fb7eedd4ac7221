package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"checkin/config"
	"checkin/database"
	"checkin/middleware"
	"checkin/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{config: cfg}
}

type registerRequest struct {
	Name                       string `json:"name"`
	Email                      string `json:"email"`
	Password                   string `json:"password"`
	Timezone                   string `json:"timezone"`
	DefaultWorkDurationMinutes int    `json:"default_work_duration_minutes"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type profileUpdateRequest struct {
	Name                       *string `json:"name"`
	Timezone                   *string `json:"timezone"`
	DefaultWorkDurationMinutes *int    `json:"default_work_duration_minutes"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" || len(req.Name) > 50 {
		respondError(w, http.StatusBadRequest, "Name is required and cannot exceed 50 characters")
		return
	}
	if !validEmail(req.Email) {
		respondError(w, http.StatusBadRequest, "Please provide a valid email")
		return
	}
	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid timezone")
			return
		}
	}

	workMinutes := req.DefaultWorkDurationMinutes
	if workMinutes == 0 {
		workMinutes = h.config.DefaultWorkMinutes
	}
	if workMinutes < 0 || workMinutes > 1440 {
		respondError(w, http.StatusBadRequest, "Work duration must be between 0 and 1440 minutes")
		return
	}

	var existing models.User
	if err := database.GetDB().Where("email = ?", req.Email).First(&existing).Error; err == nil {
		respondError(w, http.StatusConflict, "Email already registered")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	user := models.User{
		Name:                       req.Name,
		Email:                      req.Email,
		PasswordHash:               string(hashedPassword),
		Timezone:                   req.Timezone,
		DefaultWorkDurationMinutes: workMinutes,
	}
	if err := database.GetDB().Create(&user).Error; err != nil {
		// Lost the race between the existence check and the insert;
		// the email unique index reports it as a duplicated key.
		if isDuplicateKey(err) {
			respondError(w, http.StatusConflict, "Email already registered")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	tokens, err := h.issueTokens(&user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondSuccess(w, http.StatusCreated, "Registered successfully", map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := database.GetDB().Where("email = ?", req.Email).First(&user).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	tokens, err := h.issueTokens(&user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondSuccess(w, http.StatusOK, "Logged in successfully", map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	claims, err := middleware.ValidateToken(req.RefreshToken)
	if err != nil || claims.TokenType != middleware.TokenTypeRefresh {
		respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	var user models.User
	if err := database.GetDB().First(&user, "id = ?", claims.UserID).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "User not found")
		return
	}
	// Rotation: only the most recently issued refresh token is valid.
	if user.RefreshToken != req.RefreshToken {
		respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	tokens, err := h.issueTokens(&user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondSuccess(w, http.StatusOK, "Token refreshed", map[string]interface{}{
		"tokens": tokens,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	if err := database.GetDB().Model(user).Update("refresh_token", "").Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}
	respondSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	respondSuccess(w, http.StatusOK, "", map[string]interface{}{"user": user})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 50 {
			respondError(w, http.StatusBadRequest, "Name is required and cannot exceed 50 characters")
			return
		}
		user.Name = name
	}
	if req.Timezone != nil {
		if *req.Timezone != "" {
			if _, err := time.LoadLocation(*req.Timezone); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid timezone")
				return
			}
		}
		user.Timezone = *req.Timezone
	}
	if req.DefaultWorkDurationMinutes != nil {
		if *req.DefaultWorkDurationMinutes < 0 || *req.DefaultWorkDurationMinutes > 1440 {
			respondError(w, http.StatusBadRequest, "Work duration must be between 0 and 1440 minutes")
			return
		}
		user.DefaultWorkDurationMinutes = *req.DefaultWorkDurationMinutes
	}

	if err := database.GetDB().Save(user).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	respondSuccess(w, http.StatusOK, "Profile updated", map[string]interface{}{"user": user})
}

func (h *AuthHandler) issueTokens(user *models.User) (*tokenPair, error) {
	access, err := middleware.GenerateAccessToken(user, h.config.AccessTokenExpiration)
	if err != nil {
		return nil, err
	}
	refresh, err := middleware.GenerateRefreshToken(user, h.config.RefreshTokenExpiration)
	if err != nil {
		return nil, err
	}
	if err := database.GetDB().Model(user).Update("refresh_token", refresh).Error; err != nil {
		return nil, err
	}
	return &tokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t")
}
