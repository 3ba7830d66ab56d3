package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"studio/database"
	"studio/middleware"
	"studio/models"
)

type ClientHandler struct {
	logger *zap.Logger
}

func NewClientHandler(logger *zap.Logger) *ClientHandler {
	return &ClientHandler{logger: logger}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	query := database.GetDB().Order("name asc")
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var clients []models.Client
	if err := query.Find(&clients).Error; err != nil {
		respondError(w, h.logger, err, "clients")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

type clientRequest struct {
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	Phone        string `json:"phone"`
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "client")
		return
	}

	client := models.Client{
		Name:         strings.TrimSpace(req.Name),
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactEmail: strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		Phone:        strings.TrimSpace(req.Phone),
	}
	if client.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	var existing int64
	if err := database.GetDB().Model(&models.Client{}).Where("name = ?", client.Name).Count(&existing).Error; err != nil {
		respondError(w, h.logger, err, "client")
		return
	}
	if existing > 0 {
		writeError(w, http.StatusConflict, "client already exists")
		return
	}

	if err := database.GetDB().Create(&client).Error; err != nil {
		respondError(w, h.logger, err, "client")
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	recordActivity(h.logger, user.ID, nil, "client", client.ID, "created", nil)
	writeJSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, h.logger, err, "client")
		return
	}

	var client models.Client
	if err := database.GetDB().Preload("Projects").First(&client, id).Error; err != nil {
		respondError(w, h.logger, err, "client")
		return
	}
	writeJSON(w, http.StatusOK, client)
}
