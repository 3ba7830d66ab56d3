package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"studio/database"
	"studio/middleware"
	"studio/models"
)

type UserHandler struct {
	logger *zap.Logger
}

func NewUserHandler(logger *zap.Logger) *UserHandler {
	return &UserHandler{logger: logger}
}

// List returns every user. Managers and admins use it to pick assignees.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	query := database.GetDB().Order("full_name asc")
	if role := r.URL.Query().Get("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		respondError(w, h.logger, err, "users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Username string      `json:"username"`
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Password string      `json:"password"`
}

// Create adds a user with a temporary password they must change on first
// login.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "user")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	switch {
	case len(req.Username) < 3:
		writeError(w, http.StatusBadRequest, "username must be at least 3 characters")
		return
	case !models.ValidRole(req.Role):
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	case len(req.Password) < 5:
		writeError(w, http.StatusBadRequest, "password must be at least 5 characters")
		return
	}

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
		Username:           req.Username,
		FullName:           firstNonEmpty(req.FullName, req.Username),
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:       string(hashedPassword),
		Role:               req.Role,
		MustChangePassword: true,
	}
	if err := database.GetDB().Create(&user).Error; err != nil {
		respondError(w, h.logger, err, "user")
		return
	}

	actor := middleware.GetUserFromContext(r.Context())
	h.logger.Info("user created", zap.Uint("user_id", user.ID), zap.Uint("by", actor.ID))
	writeJSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	FullName *string      `json:"full_name"`
	Email    *string      `json:"email"`
	Role     *models.Role `json:"role"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, h.logger, err, "user")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "user")
		return
	}

	var user models.User
	if err := database.GetDB().First(&user, id).Error; err != nil {
		respondError(w, h.logger, err, "user")
		return
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			writeError(w, http.StatusBadRequest, "invalid role")
			return
		}
		user.Role = *req.Role
	}

	if err := database.GetDB().Save(&user).Error; err != nil {
		respondError(w, h.logger, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, h.logger, err, "user")
		return
	}

	actor := middleware.GetUserFromContext(r.Context())
	if actor.ID == id {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	res := database.GetDB().Delete(&models.User{}, id)
	if res.Error != nil {
		respondError(w, h.logger, res.Error, "user")
		return
	}
	if res.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
