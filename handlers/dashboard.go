package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"studio/database"
	"studio/middleware"
	"studio/models"
)

// upcomingWindow is how far ahead the dashboard looks for milestones.
const upcomingWindow = 14 * 24 * time.Hour

type DashboardHandler struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewDashboardHandler(logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{logger: logger, now: time.Now}
}

type dashboardResponse struct {
	ProjectsByStatus   map[models.ProjectStatus]int64 `json:"projects_by_status"`
	TasksByStatus      map[models.TaskStatus]int64    `json:"tasks_by_status"`
	OverdueTasks       []models.Task                  `json:"overdue_tasks"`
	UpcomingMilestones []models.Milestone             `json:"upcoming_milestones"`
	RecentActivities   []models.Activity              `json:"recent_activities"`
}

type statusCount struct {
	Status string
	Count  int64
}

// Dashboard gathers the summary widgets. Each query runs in its own
// goroutine; members only see figures for projects they are assigned to.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	now := h.now().UTC()

	var projectIDs []uint
	seeAll := user.CanManageProjects()
	if !seeAll {
		ids, err := memberProjectIDs(user.ID)
		if err != nil {
			respondError(w, h.logger, err, "dashboard")
			return
		}
		projectIDs = ids
	}
	// scope restricts a query to the visible projects. column is the
	// project id column of the queried table.
	scope := func(column string) func(*gorm.DB) *gorm.DB {
		return func(db *gorm.DB) *gorm.DB {
			if seeAll {
				return db
			}
			if len(projectIDs) == 0 {
				return db.Where("1 = 0")
			}
			return db.Where(column+" IN ?", projectIDs)
		}
	}

	resp := dashboardResponse{
		ProjectsByStatus:   map[models.ProjectStatus]int64{},
		TasksByStatus:      map[models.TaskStatus]int64{},
		OverdueTasks:       []models.Task{},
		UpcomingMilestones: []models.Milestone{},
		RecentActivities:   []models.Activity{},
	}
	for _, s := range models.ProjectStatuses {
		resp.ProjectsByStatus[s] = 0
	}
	for _, s := range models.TaskStatuses {
		resp.TasksByStatus[s] = 0
	}

	var projectCounts, taskCounts []statusCount
	g, ctx := errgroup.WithContext(r.Context())
	db := func() *gorm.DB { return database.GetDB().WithContext(ctx) }

	g.Go(func() error {
		return db().Model(&models.Project{}).Scopes(scope("id")).
			Select("status, COUNT(*) AS count").Group("status").
			Scan(&projectCounts).Error
	})
	g.Go(func() error {
		return db().Model(&models.Task{}).Scopes(scope("project_id")).
			Select("status, COUNT(*) AS count").Group("status").
			Scan(&taskCounts).Error
	})
	g.Go(func() error {
		return db().Preload("Assignee").Scopes(scope("project_id")).
			Where("status <> ? AND due_date IS NOT NULL AND due_date < ?", models.TaskCompleted, now).
			Order("due_date asc").Limit(20).
			Find(&resp.OverdueTasks).Error
	})
	g.Go(func() error {
		return db().Scopes(scope("project_id")).
			Where("completed = ? AND due_date >= ? AND due_date <= ?", false, now, now.Add(upcomingWindow)).
			Order("due_date asc").
			Find(&resp.UpcomingMilestones).Error
	})
	g.Go(func() error {
		return db().Preload("Actor").Scopes(scope("project_id")).
			Order("created_at desc, id desc").Limit(10).
			Find(&resp.RecentActivities).Error
	})

	if err := g.Wait(); err != nil {
		respondError(w, h.logger, err, "dashboard")
		return
	}

	for _, c := range projectCounts {
		resp.ProjectsByStatus[models.ProjectStatus(c.Status)] = c.Count
	}
	for _, c := range taskCounts {
		resp.TasksByStatus[models.TaskStatus(c.Status)] = c.Count
	}
	writeJSON(w, http.StatusOK, resp)
}
