package database

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studio/models"
)

func setupTestDB(t *testing.T) {
	require.NoError(t, Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared", logger.Silent))
	require.NoError(t, Migrate())
	t.Cleanup(func() { Close() })
}

func TestOpenUnknownDriver(t *testing.T) {
	assert.Error(t, Open("mysql", "x", logger.Silent))
}

func TestSeedDefaultAdminOnce(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, SeedDefaultAdmin(zap.NewNop()))
	require.NoError(t, SeedDefaultAdmin(zap.NewNop()))

	var admins []models.User
	require.NoError(t, DB.Where("username = ?", "admin").Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, models.RoleAdmin, admins[0].Role)
	assert.True(t, admins[0].MustChangePassword)

	assert.NoError(t, Ping(context.Background()))
}

func TestSeedDemoIdempotent(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, SeedDemo(zap.NewNop()))
	require.NoError(t, SeedDemo(zap.NewNop()))

	var projects, tasks, phases, users int64
	DB.Model(&models.Project{}).Count(&projects)
	DB.Model(&models.Task{}).Count(&tasks)
	DB.Model(&models.Phase{}).Count(&phases)
	DB.Model(&models.User{}).Count(&users)
	assert.Equal(t, int64(2), projects)
	assert.Equal(t, int64(4), tasks)
	assert.Equal(t, int64(5), phases)
	assert.Equal(t, int64(2), users)

	var done models.Task
	require.NoError(t, DB.Where("title = ?", "Massing options").First(&done).Error)
	assert.NotNil(t, done.CompletedAt)
}

func TestDeleteProjectCascade(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, SeedDemo(zap.NewNop()))

	var keep, drop models.Project
	require.NoError(t, DB.Where("code = ?", "NFT-02").First(&keep).Error)
	require.NoError(t, DB.Where("code = ?", "HBV-01").First(&drop).Error)

	var task models.Task
	require.NoError(t, DB.Where("project_id = ?", drop.ID).First(&task).Error)
	require.NoError(t, DB.Create(&models.Comment{TaskID: task.ID, AuthorID: 1, Body: "looks good"}).Error)
	require.NoError(t, DB.Create(&models.Document{ProjectID: drop.ID, UploadedBy: 1, Name: "brief.pdf", StorageKey: "k1"}).Error)

	require.NoError(t, DeleteProjectCascade(DB, drop.ID))

	count := func(model interface{}, where string, args ...interface{}) int64 {
		var n int64
		require.NoError(t, DB.Unscoped().Model(model).Where(where, args...).Count(&n).Error)
		return n
	}
	assert.Zero(t, count(&models.Project{}, "id = ?", drop.ID))
	assert.Zero(t, count(&models.Task{}, "project_id = ?", drop.ID))
	assert.Zero(t, count(&models.Comment{}, "task_id = ?", task.ID))
	assert.Zero(t, count(&models.Phase{}, "project_id = ?", drop.ID))
	assert.Zero(t, count(&models.Milestone{}, "project_id = ?", drop.ID))
	assert.Zero(t, count(&models.Document{}, "project_id = ?", drop.ID))
	assert.Zero(t, count(&models.ProjectMember{}, "project_id = ?", drop.ID))

	// the other project is untouched
	assert.Equal(t, int64(1), count(&models.Task{}, "project_id = ?", keep.ID))
	assert.Equal(t, int64(2), count(&models.Phase{}, "project_id = ?", keep.ID))

	// the code can be reused
	require.NoError(t, DB.Create(&models.Project{Code: "HBV-01", Name: "Again"}).Error)

	err := DeleteProjectCascade(DB, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteTaskCascade(t *testing.T) {
	setupTestDB(t)

	project := models.Project{Code: "TC-1", Name: "Cascade"}
	require.NoError(t, DB.Create(&project).Error)
	parent := models.Task{ProjectID: project.ID, Title: "Parent"}
	require.NoError(t, DB.Create(&parent).Error)
	child := models.Task{ProjectID: project.ID, Title: "Child", ParentID: &parent.ID}
	require.NoError(t, DB.Create(&child).Error)
	grandchild := models.Task{ProjectID: project.ID, Title: "Grandchild", ParentID: &child.ID}
	require.NoError(t, DB.Create(&grandchild).Error)
	sibling := models.Task{ProjectID: project.ID, Title: "Sibling"}
	require.NoError(t, DB.Create(&sibling).Error)
	require.NoError(t, DB.Create(&models.Comment{TaskID: parent.ID, AuthorID: 1, Body: "top"}).Error)
	require.NoError(t, DB.Create(&models.Comment{TaskID: grandchild.ID, AuthorID: 1, Body: "deep"}).Error)
	require.NoError(t, DB.Create(&models.Comment{TaskID: sibling.ID, AuthorID: 1, Body: "keep"}).Error)

	n, err := DeleteTaskCascade(DB, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var live []models.Task
	require.NoError(t, DB.Where("project_id = ?", project.ID).Find(&live).Error)
	require.Len(t, live, 1)
	assert.Equal(t, "Sibling", live[0].Title)

	var comments []models.Comment
	require.NoError(t, DB.Find(&comments).Error)
	require.Len(t, comments, 1)
	assert.Equal(t, "keep", comments[0].Body)

	// rows are soft-deleted
	var all int64
	require.NoError(t, DB.Unscoped().Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&all).Error)
	assert.Equal(t, int64(4), all)

	_, err = DeleteTaskCascade(DB, parent.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRecordActivity(t *testing.T) {
	setupTestDB(t)

	pid := uint(7)
	require.NoError(t, RecordActivity(DB, 1, &pid, "task", 3, "status_changed", map[string]interface{}{"from": "todo", "to": "review"}))
	require.NoError(t, RecordActivity(DB, 1, nil, "client", 2, "created", nil))

	var activities []models.Activity
	require.NoError(t, DB.Order("id").Find(&activities).Error)
	require.Len(t, activities, 2)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(activities[0].Metadata, &meta))
	assert.Equal(t, "review", meta["to"])
	assert.Nil(t, activities[1].ProjectID)
}
