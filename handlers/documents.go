package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"studio/database"
	"studio/middleware"
	"studio/models"
)

func (h *ProjectHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	project, err := loadProject(r)
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}
	if !h.authorizeView(w, r, project.ID) {
		return
	}

	var documents []models.Document
	if err := database.GetDB().Where("project_id = ?", project.ID).Order("created_at desc").Find(&documents).Error; err != nil {
		respondError(w, h.logger, err, "documents")
		return
	}
	writeJSON(w, http.StatusOK, documents)
}

type documentRequest struct {
	Name string   `json:"name"`
	URL  string   `json:"url"`
	Tags []string `json:"tags"`
}

// CreateDocument registers a document link. Each document gets a random
// storage key that file storage can use as an object name.
func (h *ProjectHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	project, err := loadProject(r)
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}
	if !h.authorizeView(w, r, project.ID) {
		return
	}

	var req documentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "document")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}
	tagJSON, err := json.Marshal(tags)
	if err != nil {
		respondError(w, h.logger, err, "document")
		return
	}

	document := models.Document{
		ProjectID:  project.ID,
		UploadedBy: actor.ID,
		Name:       req.Name,
		URL:        strings.TrimSpace(req.URL),
		StorageKey: uuid.NewString(),
		Tags:       datatypes.JSON(tagJSON),
	}
	if err := database.GetDB().Create(&document).Error; err != nil {
		respondError(w, h.logger, err, "document")
		return
	}
	recordActivity(h.logger, actor.ID, &project.ID, "document", document.ID, "created", map[string]interface{}{"name": document.Name})
	writeJSON(w, http.StatusCreated, document)
}

// ListActivities returns the project's audit trail, newest first.
func (h *ProjectHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	project, err := loadProject(r)
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}
	if !h.authorizeView(w, r, project.ID) {
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	var activities []models.Activity
	err = database.GetDB().Preload("Actor").
		Where("project_id = ?", project.ID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		respondError(w, h.logger, err, "activities")
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// authorizeView writes 403 and returns false when the current user may not
// see the project.
func (h *ProjectHandler) authorizeView(w http.ResponseWriter, r *http.Request, projectID uint) bool {
	ok, err := canViewProject(middleware.GetUserFromContext(r.Context()), projectID)
	if err != nil {
		respondError(w, h.logger, err, "project")
		return false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}
