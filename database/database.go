package database

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studio/models"
)

var DB *gorm.DB

// Open connects to the database and sets DB. driver is "postgres" or
// "sqlite".
func Open(driver, dsn string, level logger.LogLevel) error {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	DB = db
	return nil
}

// Migrate creates or updates the schema for every model.
func Migrate() error {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Invite{},
		&models.Client{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.Comment{},
		&models.Phase{},
		&models.Milestone{},
		&models.Document{},
		&models.Activity{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Init opens the database, migrates it and seeds the default admin.
func Init(driver, dsn string, level logger.LogLevel, log *zap.Logger) error {
	if err := Open(driver, dsn, level); err != nil {
		return err
	}
	if err := Migrate(); err != nil {
		return err
	}
	return SeedDefaultAdmin(log)
}

func SeedDefaultAdmin(log *zap.Logger) error {
	var count int64
	if err := DB.Model(&models.User{}).Where("username = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Username:           "admin",
		FullName:           "Administrator",
		PasswordHash:       string(hashedPassword),
		Role:               models.RoleAdmin,
		MustChangePassword: true,
	}

	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	log.Info("default admin user created", zap.String("username", "admin"))
	return nil
}

// Ping checks the connection.
func Ping(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return DB
}

// DeleteProjectCascade removes a project and everything that hangs off it in
// one transaction. Rows are removed permanently so the project code can be
// reused.
func DeleteProjectCascade(tx *gorm.DB, projectID uint) error {
	return tx.Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Unscoped().Model(&models.Task{}).Select("id").Where("project_id = ?", projectID)
		if err := tx.Unscoped().Where("task_id IN (?)", taskIDs).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}

		children := []struct {
			name  string
			model interface{}
		}{
			{"tasks", &models.Task{}},
			{"milestones", &models.Milestone{}},
			{"phases", &models.Phase{}},
			{"documents", &models.Document{}},
			{"members", &models.ProjectMember{}},
		}
		for _, c := range children {
			if err := tx.Unscoped().Where("project_id = ?", projectID).Delete(c.model).Error; err != nil {
				return fmt.Errorf("failed to delete %s: %w", c.name, err)
			}
		}

		res := tx.Unscoped().Delete(&models.Project{}, projectID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete project: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DeleteTaskCascade soft-deletes a task with its subtasks, at any depth, and
// the comments on all of them. It returns the number of tasks deleted.
func DeleteTaskCascade(tx *gorm.DB, taskID uint) (int, error) {
	var deleted int
	err := tx.Transaction(func(tx *gorm.DB) error {
		ids := []uint{taskID}
		seen := map[uint]bool{taskID: true}
		for frontier := ids; len(frontier) > 0; {
			var children []uint
			if err := tx.Model(&models.Task{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return fmt.Errorf("failed to load subtasks: %w", err)
			}
			frontier = frontier[:0:0]
			for _, id := range children {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
					frontier = append(frontier, id)
				}
			}
		}

		if err := tx.Where("task_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Task{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete tasks: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		deleted = int(res.RowsAffected)
		return nil
	})
	return deleted, err
}

// RecordActivity appends an audit entry. metadata may be nil.
func RecordActivity(tx *gorm.DB, actorID uint, projectID *uint, entityType string, entityID uint, action string, metadata map[string]interface{}) error {
	activity := models.Activity{
		ActorID:    actorID,
		ProjectID:  projectID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
	}
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal activity metadata: %w", err)
		}
		activity.Metadata = datatypes.JSON(data)
	}
	return tx.Create(&activity).Error
}
