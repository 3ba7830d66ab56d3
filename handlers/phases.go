package handlers

import (
	"net/http"
	"strings"
	"time"

	"studio/database"
	"studio/middleware"
	"studio/models"
)

func (h *ProjectHandler) ListPhases(w http.ResponseWriter, r *http.Request) {
	project, err := loadProject(r)
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var phases []models.Phase
	if err := database.GetDB().Where("project_id = ?", project.ID).Order("sequence asc, id asc").Find(&phases).Error; err != nil {
		respondError(w, h.logger, err, "phases")
		return
	}
	writeJSON(w, http.StatusOK, phases)
}

type phaseRequest struct {
	Name      string   `json:"name"`
	Sequence  *int     `json:"sequence"`
	StartDate *string  `json:"start_date"`
	EndDate   *string  `json:"end_date"`
	Progress  *float64 `json:"progress"`
}

func (h *ProjectHandler) CreatePhase(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	project, err := loadProject(r)
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var req phaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "phase")
		return
	}

	phase := models.Phase{ProjectID: project.ID, Name: strings.TrimSpace(req.Name)}
	if phase.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if phase.StartDate, err = parseDate(req.StartDate, "start_date"); err != nil {
		respondError(w, h.logger, err, "phase")
		return
	}
	if phase.EndDate, err = parseDate(req.EndDate, "end_date"); err != nil {
		respondError(w, h.logger, err, "phase")
		return
	}
	if req.Progress != nil {
		if *req.Progress < 0 || *req.Progress > 100 {
			writeError(w, http.StatusBadRequest, "progress must be between 0 and 100")
			return
		}
		phase.Progress = *req.Progress
	}

	// new phases go to the end unless a position is given
	if req.Sequence != nil {
		phase.Sequence = *req.Sequence
	} else {
		var maxSeq int
		if err := database.GetDB().Model(&models.Phase{}).Where("project_id = ?", project.ID).
			Select("COALESCE(MAX(sequence), 0)").Scan(&maxSeq).Error; err != nil {
			respondError(w, h.logger, err, "phase")
			return
		}
		phase.Sequence = maxSeq + 1
	}

	if err := database.GetDB().Create(&phase).Error; err != nil {
		respondError(w, h.logger, err, "phase")
		return
	}
	recordActivity(h.logger, actor.ID, &project.ID, "phase", phase.ID, "created", nil)
	writeJSON(w, http.StatusCreated, phase)
}

func (h *ProjectHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	project, err := loadProject(r)
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var milestones []models.Milestone
	if err := database.GetDB().Where("project_id = ?", project.ID).Order("due_date asc").Find(&milestones).Error; err != nil {
		respondError(w, h.logger, err, "milestones")
		return
	}
	writeJSON(w, http.StatusOK, milestones)
}

type milestoneRequest struct {
	Title     *string `json:"title"`
	PhaseID   *uint   `json:"phase_id"`
	DueDate   *string `json:"due_date"`
	Completed *bool   `json:"completed"`
}

func (h *ProjectHandler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	project, err := loadProject(r)
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var req milestoneRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "milestone")
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	due, err := parseDate(req.DueDate, "due_date")
	if err != nil {
		respondError(w, h.logger, err, "milestone")
		return
	}
	if due == nil {
		writeError(w, http.StatusBadRequest, "due_date is required")
		return
	}

	milestone := models.Milestone{
		ProjectID: project.ID,
		Title:     strings.TrimSpace(*req.Title),
		DueDate:   *due,
	}
	if req.PhaseID != nil {
		var n int64
		if err := database.GetDB().Model(&models.Phase{}).Where("id = ? AND project_id = ?", *req.PhaseID, project.ID).Count(&n).Error; err != nil {
			respondError(w, h.logger, err, "milestone")
			return
		}
		if n == 0 {
			writeError(w, http.StatusBadRequest, "phase does not belong to this project")
			return
		}
		milestone.PhaseID = req.PhaseID
	}

	if err := database.GetDB().Create(&milestone).Error; err != nil {
		respondError(w, h.logger, err, "milestone")
		return
	}
	recordActivity(h.logger, actor.ID, &project.ID, "milestone", milestone.ID, "created", nil)
	writeJSON(w, http.StatusCreated, milestone)
}

// UpdateMilestone edits a milestone. Marking it completed stamps the
// completion time; reopening clears it.
func (h *ProjectHandler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, h.logger, err, "milestone")
		return
	}

	var req milestoneRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "milestone")
		return
	}

	var milestone models.Milestone
	if err := database.GetDB().First(&milestone, id).Error; err != nil {
		respondError(w, h.logger, err, "milestone")
		return
	}

	if req.Title != nil {
		milestone.Title = strings.TrimSpace(*req.Title)
	}
	if req.DueDate != nil {
		due, err := parseDate(req.DueDate, "due_date")
		if err != nil {
			respondError(w, h.logger, err, "milestone")
			return
		}
		if due != nil {
			milestone.DueDate = *due
		}
	}
	if req.Completed != nil && *req.Completed != milestone.Completed {
		milestone.Completed = *req.Completed
		if milestone.Completed {
			now := time.Now()
			milestone.CompletedAt = &now
		} else {
			milestone.CompletedAt = nil
		}
	}

	if err := database.GetDB().Save(&milestone).Error; err != nil {
		respondError(w, h.logger, err, "milestone")
		return
	}
	recordActivity(h.logger, actor.ID, &milestone.ProjectID, "milestone", milestone.ID, "updated", nil)
	writeJSON(w, http.StatusOK, milestone)
}
