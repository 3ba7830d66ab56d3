package handlers

import (
	"net/http"
	"strings"

	"studio/database"
	"studio/middleware"
	"studio/models"
)

type memberRequest struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

// AddMember assigns a user to a project.
func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	project, err := loadProject(r)
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "member")
		return
	}

	var user models.User
	if err := database.GetDB().First(&user, req.UserID).Error; err != nil {
		respondError(w, h.logger, err, "user")
		return
	}

	// Check if assignment already exists
	var existingCount int64
	if err := database.GetDB().Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, user.ID).
		Count(&existingCount).Error; err != nil {
		respondError(w, h.logger, err, "member")
		return
	}
	if existingCount > 0 {
		writeError(w, http.StatusConflict, "user is already a member of this project")
		return
	}

	member := models.ProjectMember{
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      firstNonEmpty(strings.ToLower(req.Role), "member"),
	}
	if err := database.GetDB().Create(&member).Error; err != nil {
		respondError(w, h.logger, err, "member")
		return
	}
	member.User = &user

	recordActivity(h.logger, actor.ID, &project.ID, "member", user.ID, "added", map[string]interface{}{"role": member.Role})
	writeJSON(w, http.StatusCreated, member)
}

// RemoveMember removes a user's assignment to a project.
func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())
	project, err := loadProject(r)
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}
	userID, err := urlID(r, "userID")
	if err != nil {
		respondError(w, h.logger, err, "member")
		return
	}

	res := database.GetDB().Where("project_id = ? AND user_id = ?", project.ID, userID).Delete(&models.ProjectMember{})
	if res.Error != nil {
		respondError(w, h.logger, res.Error, "member")
		return
	}
	if res.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	recordActivity(h.logger, actor.ID, &project.ID, "member", userID, "removed", nil)
	w.WriteHeader(http.StatusNoContent)
}

// memberProjectIDs returns the projects a user is assigned to.
func memberProjectIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := database.GetDB().Model(&models.ProjectMember{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &ids).Error
	return ids, err
}

// canViewProject reports whether user may read the project's tasks and
// documents. Managers and admins see everything; members only the projects
// they are assigned to.
func canViewProject(user *models.User, projectID uint) (bool, error) {
	if user.CanManageProjects() {
		return true, nil
	}
	var n int64
	err := database.GetDB().Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, user.ID).
		Count(&n).Error
	return n > 0, err
}
