package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"studio/config"
	"studio/database"
	"studio/middleware"
	"studio/models"
)

type AuthHandler struct {
	config *config.Config
	logger *zap.Logger
}

func NewAuthHandler(cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		logger: logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.Auth.JWTExpiration.Seconds()),
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

// issueToken signs a token for user, sets the session cookie and writes the
// token and user as the response body.
func (h *AuthHandler) issueToken(w http.ResponseWriter, status int, user *models.User) {
	token, err := middleware.GenerateToken(user, h.config.Auth.JWTExpiration)
	if err != nil {
		respondError(w, h.logger, err, "token")
		return
	}
	h.setTokenCookie(w, token)
	writeJSON(w, status, authResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "credentials")
		return
	}

	var user models.User
	if err := database.GetDB().Where("username = ?", req.Username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, h.logger, err, "user")
			return
		}
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	h.issueToken(w, http.StatusOK, &user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearTokenCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.GetUserFromContext(r.Context()))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "password")
		return
	}

	// Verify current password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		writeError(w, http.StatusBadRequest, "current password is incorrect")
		return
	}
	if err := validatePassword(req.NewPassword, req.ConfirmPassword); err != nil {
		respondError(w, h.logger, err, "password")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, h.logger, err, "password")
		return
	}

	user.PasswordHash = string(hashedPassword)
	user.MustChangePassword = false
	if err := database.GetDB().Save(user).Error; err != nil {
		respondError(w, h.logger, err, "user")
		return
	}

	// Regenerate token with updated user info
	h.issueToken(w, http.StatusOK, user)
}

type registerRequest struct {
	Code            string `json:"code"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "invite")
		return
	}

	var invite models.Invite
	if err := database.GetDB().Where("code = ?", req.Code).First(&invite).Error; err != nil {
		writeError(w, http.StatusBadRequest, "invalid invite code")
		return
	}

	if !invite.IsValid(time.Now()) {
		writeError(w, http.StatusBadRequest, "invite has expired or already been used")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 {
		writeError(w, http.StatusBadRequest, "username must be at least 3 characters")
		return
	}
	if err := validatePassword(req.Password, req.ConfirmPassword); err != nil {
		respondError(w, h.logger, err, "password")
		return
	}

	// Check if username already exists
	var existing int64
	if err := database.GetDB().Unscoped().Model(&models.User{}).Where("username = ?", req.Username).Count(&existing).Error; err != nil {
		respondError(w, h.logger, err, "user")
		return
	}
	if existing > 0 {
		writeError(w, http.StatusConflict, "username already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, h.logger, err, "user")
		return
	}

	user := models.User{
		Username:     req.Username,
		FullName:     firstNonEmpty(req.FullName, invite.FullName, req.Username),
		Email:        invite.Email,
		PasswordHash: string(hashedPassword),
		Role:         invite.Role,
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		// User set their own password during registration, no need to change it
		if err := tx.Model(&user).Update("must_change_password", false).Error; err != nil {
			return err
		}
		user.MustChangePassword = false
		// Mark invite as used; the condition guards against a concurrent registration
		res := tx.Model(&models.Invite{}).Where("id = ? AND used = ?", invite.ID, false).Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return badRequest("invite has already been used")
		}
		return nil
	})
	if err != nil {
		respondError(w, h.logger, err, "user")
		return
	}

	h.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	h.issueToken(w, http.StatusCreated, &user)
}

type inviteRequest struct {
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

func (h *AuthHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var invites []models.Invite
	if err := database.GetDB().Where("created_by = ?", user.ID).Order("created_at desc").Find(&invites).Error; err != nil {
		respondError(w, h.logger, err, "invites")
		return
	}
	writeJSON(w, http.StatusOK, invites)
}

func (h *AuthHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if !user.CanCreateInvites() {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "invite")
		return
	}

	invite, err := models.NewInvite(req.FullName, req.Email, req.Role, user.ID, h.config.Auth.InviteExpiration)
	if err != nil {
		respondError(w, h.logger, err, "invite")
		return
	}

	if err := database.GetDB().Create(invite).Error; err != nil {
		respondError(w, h.logger, err, "invite")
		return
	}

	writeJSON(w, http.StatusCreated, invite)
}

func validatePassword(password, confirm string) error {
	if password != confirm {
		return badRequest("passwords do not match")
	}
	if len(password) < 5 {
		return badRequest("password must be at least 5 characters")
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
