package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studio/database"
	"studio/middleware"
	"studio/models"
)

type ProjectHandler struct {
	logger *zap.Logger
}

func NewProjectHandler(logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{logger: logger}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID, err := queryID(r, "client_id")
	if err != nil {
		respondError(w, h.logger, err, "projects")
		return
	}

	query := database.GetDB().Preload("Client").Order("projects.created_at desc")
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID > 0 {
		query = query.Where("client_id = ?", clientID)
	}
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		respondError(w, h.logger, err, "projects")
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

type projectRequest struct {
	Code        *string               `json:"code"`
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	ClientID    *uint                 `json:"client_id"`
	Status      *models.ProjectStatus `json:"status"`
	Priority    *models.Priority      `json:"priority"`
	Budget      *float64              `json:"budget"`
	StartDate   *string               `json:"start_date"`
	EndDate     *string               `json:"end_date"`
	Progress    *float64              `json:"progress"`
}

// apply copies the fields present in req onto p.
func (req projectRequest) apply(p *models.Project) error {
	if req.Code != nil {
		p.Code = strings.TrimSpace(*req.Code)
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.ClientID != nil {
		if *req.ClientID == 0 {
			p.ClientID = nil
		} else {
			var n int64
			if err := database.GetDB().Model(&models.Client{}).Where("id = ?", *req.ClientID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return badRequest("client %d does not exist", *req.ClientID)
			}
			p.ClientID = req.ClientID
		}
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Priority != nil {
		p.Priority = *req.Priority
	}
	if req.Budget != nil {
		if *req.Budget < 0 {
			return badRequest("budget must not be negative")
		}
		p.Budget = *req.Budget
	}
	if req.Progress != nil {
		p.Progress = *req.Progress
	}
	if req.StartDate != nil {
		d, err := parseDate(req.StartDate, "start_date")
		if err != nil {
			return err
		}
		p.StartDate = d
	}
	if req.EndDate != nil {
		d, err := parseDate(req.EndDate, "end_date")
		if err != nil {
			return err
		}
		p.EndDate = d
	}
	if p.Code == "" || p.Name == "" {
		return badRequest("code and name are required")
	}
	return nil
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var project models.Project
	if err := req.apply(&project); err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var existing int64
	if err := database.GetDB().Unscoped().Model(&models.Project{}).Where("code = ?", project.Code).Count(&existing).Error; err != nil {
		respondError(w, h.logger, err, "project")
		return
	}
	if existing > 0 {
		writeError(w, http.StatusConflict, "project code already exists")
		return
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		// the creator leads the project
		if err := tx.Create(&models.ProjectMember{ProjectID: project.ID, UserID: user.ID, Role: "lead"}).Error; err != nil {
			return err
		}
		return database.RecordActivity(tx, user.ID, &project.ID, "project", project.ID, "created", map[string]interface{}{"code": project.Code})
	})
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	h.logger.Info("project created", zap.Uint("project_id", project.ID), zap.String("code", project.Code))
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var project models.Project
	err = database.GetDB().
		Preload("Client").
		Preload("Members.User").
		Preload("Phases", func(db *gorm.DB) *gorm.DB { return db.Order("sequence asc") }).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB { return db.Order("due_date asc") }).
		First(&project, id).Error
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var project models.Project
	if err := database.GetDB().First(&project, id).Error; err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	oldStatus := project.Status
	if err := req.apply(&project); err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Client").Save(&project).Error; err != nil {
			return err
		}
		meta := map[string]interface{}{}
		if project.Status != oldStatus {
			meta["from"] = oldStatus
			meta["to"] = project.Status
		}
		return database.RecordActivity(tx, user.ID, &project.ID, "project", project.ID, "updated", meta)
	})
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Delete removes the project with its tasks, comments, phases, milestones,
// documents and memberships.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var project models.Project
	if err := database.GetDB().First(&project, id).Error; err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	if err := database.DeleteProjectCascade(database.GetDB(), project.ID); err != nil {
		respondError(w, h.logger, err, "project")
		return
	}
	recordActivity(h.logger, user.ID, nil, "project", project.ID, "deleted", map[string]interface{}{"code": project.Code})

	h.logger.Info("project deleted", zap.Uint("project_id", project.ID), zap.Uint("by", user.ID))
	w.WriteHeader(http.StatusNoContent)
}

// loadProject fetches the project named by the {id} URL parameter.
func loadProject(r *http.Request) (*models.Project, error) {
	id, err := urlID(r, "id")
	if err != nil {
		return nil, err
	}
	var project models.Project
	if err := database.GetDB().First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}
