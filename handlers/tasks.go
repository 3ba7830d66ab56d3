package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"studio/database"
	"studio/middleware"
	"studio/models"
)

type TaskHandler struct {
	logger *zap.Logger
}

func NewTaskHandler(logger *zap.Logger) *TaskHandler {
	return &TaskHandler{logger: logger}
}

// List returns tasks filtered by project_id, status and assignee_id. Members
// only see tasks in projects they are assigned to.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	projectID, err := queryID(r, "project_id")
	if err != nil {
		respondError(w, h.logger, err, "tasks")
		return
	}
	assigneeID, err := queryID(r, "assignee_id")
	if err != nil {
		respondError(w, h.logger, err, "tasks")
		return
	}

	query := database.GetDB().Preload("Assignee").Order("tasks.due_date IS NULL, tasks.due_date asc, tasks.id asc")
	if !user.CanManageProjects() {
		ids, err := memberProjectIDs(user.ID)
		if err != nil {
			respondError(w, h.logger, err, "tasks")
			return
		}
		if len(ids) == 0 {
			writeJSON(w, http.StatusOK, []models.Task{})
			return
		}
		query = query.Where("project_id IN ?", ids)
	}
	if projectID > 0 {
		query = query.Where("project_id = ?", projectID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if assigneeID > 0 {
		query = query.Where("assignee_id = ?", assigneeID)
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		respondError(w, h.logger, err, "tasks")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

type taskRequest struct {
	ProjectID      *uint              `json:"project_id"`
	ParentID       *uint              `json:"parent_id"`
	AssigneeID     *uint              `json:"assignee_id"`
	Title          *string            `json:"title"`
	Description    *string            `json:"description"`
	Status         *models.TaskStatus `json:"status"`
	Priority       *models.Priority   `json:"priority"`
	DueDate        *string            `json:"due_date"`
	EstimatedHours *float64           `json:"estimated_hours"`
	ActualHours    *float64           `json:"actual_hours"`
}

// apply copies the fields present in req onto t. The project itself is not
// changed here.
func (req taskRequest) apply(t *models.Task) error {
	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if t.Title == "" {
		return badRequest("title is required")
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		due, err := parseDate(req.DueDate, "due_date")
		if err != nil {
			return err
		}
		t.DueDate = due
	}
	if req.EstimatedHours != nil {
		t.EstimatedHours = *req.EstimatedHours
	}
	if req.ActualHours != nil {
		t.ActualHours = *req.ActualHours
	}

	if req.AssigneeID != nil {
		if *req.AssigneeID == 0 {
			t.AssigneeID = nil
		} else {
			var n int64
			if err := database.GetDB().Model(&models.User{}).Where("id = ?", *req.AssigneeID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return badRequest("assignee does not exist")
			}
			t.AssigneeID = req.AssigneeID
		}
	}
	if req.ParentID != nil {
		if *req.ParentID == 0 {
			t.ParentID = nil
		} else {
			if t.ID != 0 && *req.ParentID == t.ID {
				return badRequest("a task cannot be its own parent")
			}
			var n int64
			if err := database.GetDB().Model(&models.Task{}).Where("id = ? AND project_id = ?", *req.ParentID, t.ProjectID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return badRequest("parent task does not belong to this project")
			}
			t.ParentID = req.ParentID
		}
	}
	return nil
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "task")
		return
	}
	if req.ProjectID == nil || *req.ProjectID == 0 {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	// a task must reference an existing project
	var project models.Project
	if err := database.GetDB().First(&project, *req.ProjectID).Error; err != nil {
		respondError(w, h.logger, badRequest("project %d does not exist", *req.ProjectID), "task")
		return
	}
	ok, err := canViewProject(user, project.ID)
	if err != nil {
		respondError(w, h.logger, err, "task")
		return
	}
	if !ok {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	task := models.Task{ProjectID: project.ID}
	if err := req.apply(&task); err != nil {
		respondError(w, h.logger, err, "task")
		return
	}
	// members create tasks for themselves
	if !user.CanManageProjects() {
		task.AssigneeID = &user.ID
	}

	if err := database.GetDB().Create(&task).Error; err != nil {
		respondError(w, h.logger, err, "task")
		return
	}
	recordActivity(h.logger, user.ID, &project.ID, "task", task.ID, "created", map[string]interface{}{"title": task.Title})
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, h.logger, err, "task")
		return
	}

	var task models.Task
	err = database.GetDB().
		Preload("Assignee").
		Preload("Subtasks").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("Comments.Author").
		First(&task, id).Error
	if err != nil {
		respondError(w, h.logger, err, "task")
		return
	}

	ok, err := canViewProject(user, task.ProjectID)
	if err != nil {
		respondError(w, h.logger, err, "task")
		return
	}
	if !ok {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Update applies a partial update. The task is loaded and saved whole so the
// completion timestamp follows the status.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, h.logger, err, "task")
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "task")
		return
	}

	var task models.Task
	if err := database.GetDB().First(&task, id).Error; err != nil {
		respondError(w, h.logger, err, "task")
		return
	}
	if !user.CanEditTask(&task) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if req.ProjectID != nil && *req.ProjectID != task.ProjectID {
		writeError(w, http.StatusBadRequest, "tasks cannot be moved between projects")
		return
	}
	// members cannot hand their tasks to someone else
	if req.AssigneeID != nil && !user.CanManageProjects() && *req.AssigneeID != user.ID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	from := task.Status
	if err := req.apply(&task); err != nil {
		respondError(w, h.logger, err, "task")
		return
	}
	if err := database.GetDB().Omit("Project", "Assignee", "Subtasks", "Comments").Save(&task).Error; err != nil {
		respondError(w, h.logger, err, "task")
		return
	}

	if task.Status != from {
		recordActivity(h.logger, user.ID, &task.ProjectID, "task", task.ID, "status_changed",
			map[string]interface{}{"from": from, "to": task.Status})
	} else {
		recordActivity(h.logger, user.ID, &task.ProjectID, "task", task.ID, "updated", nil)
	}
	writeJSON(w, http.StatusOK, task)
}

// Delete soft-deletes a task together with its subtasks and their comments.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, h.logger, err, "task")
		return
	}

	var task models.Task
	if err := database.GetDB().First(&task, id).Error; err != nil {
		respondError(w, h.logger, err, "task")
		return
	}
	if !user.CanEditTask(&task) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	deleted, err := database.DeleteTaskCascade(database.GetDB(), task.ID)
	if err != nil {
		respondError(w, h.logger, err, "task")
		return
	}
	recordActivity(h.logger, user.ID, &task.ProjectID, "task", task.ID, "deleted", map[string]interface{}{"tasks": deleted})
	w.WriteHeader(http.StatusNoContent)
}

type commentRequest struct {
	Body string `json:"body"`
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := urlID(r, "id")
	if err != nil {
		respondError(w, h.logger, err, "task")
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err, "comment")
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		writeError(w, http.StatusBadRequest, "body is required")
		return
	}

	var task models.Task
	if err := database.GetDB().First(&task, id).Error; err != nil {
		respondError(w, h.logger, err, "task")
		return
	}
	ok, err := canViewProject(user, task.ProjectID)
	if err != nil {
		respondError(w, h.logger, err, "task")
		return
	}
	if !ok {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	comment := models.Comment{TaskID: task.ID, AuthorID: user.ID, Body: body}
	if err := database.GetDB().Create(&comment).Error; err != nil {
		respondError(w, h.logger, err, "comment")
		return
	}
	comment.Author = user
	recordActivity(h.logger, user.ID, &task.ProjectID, "comment", comment.ID, "created", map[string]interface{}{"task_id": task.ID})
	writeJSON(w, http.StatusCreated, comment)
}

// ExportCSV writes a project's tasks as a CSV attachment.
func (h *TaskHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if !user.CanExport() {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	project, err := loadProject(r)
	if err != nil {
		respondError(w, h.logger, err, "project")
		return
	}

	var tasks []models.Task
	err = database.GetDB().Preload("Assignee").
		Where("project_id = ?", project.ID).
		Order("due_date IS NULL, due_date asc, id asc").
		Find(&tasks).Error
	if err != nil {
		respondError(w, h.logger, err, "tasks")
		return
	}

	filename := fmt.Sprintf("%s_tasks_%s.csv", strings.ToLower(project.Code), time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write([]string{"ID", "Title", "Status", "Priority", "Assignee", "Due Date", "Completed At", "Estimated Hours", "Actual Hours"})
	for _, t := range tasks {
		assignee := ""
		if t.Assignee != nil {
			assignee = t.Assignee.DisplayName()
		}
		writer.Write([]string{
			fmt.Sprintf("%d", t.ID),
			t.Title,
			string(t.Status),
			string(t.Priority),
			assignee,
			formatDate(t.DueDate),
			formatDate(t.CompletedAt),
			fmt.Sprintf("%.2f", t.EstimatedHours),
			fmt.Sprintf("%.2f", t.ActualHours),
		})
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
