package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"studio/models"
)

const demoPassword = "studio123"

// SeedDemo inserts a small demo studio: two clients, a manager, a member and
// two projects with phases, milestones and tasks. Running it twice is safe;
// rows are matched on their natural keys.
func SeedDemo(log *zap.Logger) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		users := map[string]*models.User{}
		for _, u := range []models.User{
			{Username: "maya", FullName: "Maya Iyer", Email: "maya@studio.local", Role: models.RoleManager},
			{Username: "ravi", FullName: "Ravi Menon", Email: "ravi@studio.local", Role: models.RoleMember},
		} {
			u := u
			u.PasswordHash = string(hash)
			u.MustChangePassword = false
			if err := tx.Where(models.User{Username: u.Username}).FirstOrCreate(&u).Error; err != nil {
				return fmt.Errorf("failed to seed user %s: %w", u.Username, err)
			}
			// must_change_password has a database default, so false is not written on create
			if err := tx.Model(&u).Update("must_change_password", false).Error; err != nil {
				return err
			}
			users[u.Username] = &u
		}

		clients := map[string]*models.Client{}
		for _, c := range []models.Client{
			{Name: "Harbourline Developers", ContactName: "S. Kapoor", ContactEmail: "projects@harbourline.example"},
			{Name: "Northfield Trust", ContactName: "A. Rao", ContactEmail: "estates@northfield.example"},
		} {
			c := c
			if err := tx.Where(models.Client{Name: c.Name}).FirstOrCreate(&c).Error; err != nil {
				return fmt.Errorf("failed to seed client %s: %w", c.Name, err)
			}
			clients[c.Name] = &c
		}

		today := time.Now().Truncate(24 * time.Hour)
		day := func(offset int) *time.Time {
			d := today.AddDate(0, 0, offset)
			return &d
		}

		projects := []struct {
			project models.Project
			client  string
			phases  []string
			tasks   []models.Task
		}{
			{
				project: models.Project{Code: "HBV-01", Name: "Harbour View Residences", Status: models.ProjectActive, Priority: models.PriorityHigh, Budget: 4500000, StartDate: day(-90), EndDate: day(270), Progress: 35},
				client:  "Harbourline Developers",
				phases:  []string{"Concept", "Schematic Design", "Design Development"},
				tasks: []models.Task{
					{Title: "Massing options", Status: models.TaskCompleted, EstimatedHours: 16, ActualHours: 18},
					{Title: "Unit mix study", Status: models.TaskInProgress, DueDate: day(-3), EstimatedHours: 12},
					{Title: "Facade concept", Status: models.TaskTodo, DueDate: day(10), EstimatedHours: 24},
				},
			},
			{
				project: models.Project{Code: "NFT-02", Name: "Northfield Library Extension", Status: models.ProjectPlanning, Priority: models.PriorityMedium, Budget: 1200000, StartDate: day(14)},
				client:  "Northfield Trust",
				phases:  []string{"Brief", "Concept"},
				tasks: []models.Task{
					{Title: "Site survey review", Status: models.TaskTodo, DueDate: day(7), EstimatedHours: 6},
				},
			},
		}

		for _, p := range projects {
			project := p.project
			project.ClientID = &clients[p.client].ID
			var existing int64
			if err := tx.Unscoped().Model(&models.Project{}).Where("code = ?", project.Code).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			if err := tx.Create(&project).Error; err != nil {
				return fmt.Errorf("failed to seed project %s: %w", project.Code, err)
			}

			for i, name := range p.phases {
				phase := models.Phase{ProjectID: project.ID, Name: name, Sequence: i + 1}
				if err := tx.Create(&phase).Error; err != nil {
					return err
				}
				milestone := models.Milestone{ProjectID: project.ID, PhaseID: &phase.ID, Title: name + " sign-off", DueDate: *day(7 + 30*i)}
				if err := tx.Create(&milestone).Error; err != nil {
					return err
				}
			}

			for _, m := range []struct {
				user string
				role string
			}{{"maya", "lead"}, {"ravi", "designer"}} {
				member := models.ProjectMember{ProjectID: project.ID, UserID: users[m.user].ID, Role: m.role}
				if err := tx.Create(&member).Error; err != nil {
					return err
				}
			}

			for _, task := range p.tasks {
				task.ProjectID = project.ID
				task.AssigneeID = &users["ravi"].ID
				if err := tx.Create(&task).Error; err != nil {
					return err
				}
			}

			if err := RecordActivity(tx, users["maya"].ID, &project.ID, "project", project.ID, "created", map[string]interface{}{"seed": true}); err != nil {
				return err
			}
			log.Info("seeded demo project", zap.String("code", project.Code))
		}
		return nil
	})
}
