package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio/database"
	"studio/models"
)

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(env.manager, http.MethodPost, "/api/clients", map[string]string{"name": "Harbourline"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	client := decode[models.Client](t, rec)

	rec = env.do(env.manager, http.MethodPost, "/api/projects", map[string]interface{}{
		"code":       "HBV-01",
		"name":       "Harbour View",
		"client_id":  client.ID,
		"start_date": "2024-01-01",
		"end_date":   "2024-12-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	project := decode[models.Project](t, rec)
	assert.Equal(t, models.ProjectPlanning, project.Status)
	assert.Equal(t, models.PriorityMedium, project.Priority)

	rec = env.do(env.member, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Project](t, rec)
	require.NotNil(t, got.Client)
	assert.Equal(t, "Harbourline", got.Client.Name)
	require.Len(t, got.Members, 1)
	assert.Equal(t, "lead", got.Members[0].Role)
	assert.Equal(t, env.manager.ID, got.Members[0].UserID)

	// codes are unique
	rec = env.do(env.manager, http.MethodPost, "/api/projects", map[string]interface{}{"code": "HBV-01", "name": "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateProjectValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"code": "X-1"}},
		{"unknown status", map[string]interface{}{"code": "X-1", "name": "X", "status": "archived"}},
		{"unknown client", map[string]interface{}{"code": "X-1", "name": "X", "client_id": 99}},
		{"end before start", map[string]interface{}{"code": "X-1", "name": "X", "start_date": "2024-05-01", "end_date": "2024-04-01"}},
		{"bad date", map[string]interface{}{"code": "X-1", "name": "X", "start_date": "01/05/2024"}},
		{"progress out of range", map[string]interface{}{"code": "X-1", "name": "X", "progress": 120}},
	}
	for _, tc := range cases {
		rec := env.do(env.manager, http.MethodPost, "/api/projects", tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
	}
}

func TestProjectWritesRequireManager(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject("P-1")

	rec := env.do(env.member, http.MethodPost, "/api/projects", map[string]interface{}{"code": "P-2", "name": "Two"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(env.member, http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListProjectsFilters(t *testing.T) {
	env := newTestEnv(t)
	env.createProject("ALPHA-1")
	beta := env.createProject("BETA-2")

	rec := env.do(env.manager, http.MethodPatch, fmt.Sprintf("/api/projects/%d", beta.ID), map[string]string{"status": "active"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(env.member, http.MethodGet, "/api/projects?status=active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	projects := decode[[]models.Project](t, rec)
	require.Len(t, projects, 1)
	assert.Equal(t, "BETA-2", projects[0].Code)

	rec = env.do(env.member, http.MethodGet, "/api/projects?q=alpha", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	projects = decode[[]models.Project](t, rec)
	require.Len(t, projects, 1)
	assert.Equal(t, "ALPHA-1", projects[0].Code)

	var activity models.Activity
	require.NoError(t, database.GetDB().Where("entity_type = ? AND action = ?", "project", "updated").First(&activity).Error)
	assert.JSONEq(t, `{"from":"planning","to":"active"}`, string(activity.Metadata))
}

func TestDeleteProjectCascades(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject("DEL-1")

	rec := env.createTask(env.manager, project.ID, "Survey", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[models.Task](t, rec)
	rec = env.do(env.manager, http.MethodPost, fmt.Sprintf("/api/tasks/%d/comments", task.ID), map[string]string{"body": "on it"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(env.manager, http.MethodPost, fmt.Sprintf("/api/projects/%d/phases", project.ID), map[string]string{"name": "Concept"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(env.manager, http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusNotFound, env.do(env.manager, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(env.manager, http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), nil).Code)

	for _, model := range []interface{}{&models.Task{}, &models.Comment{}, &models.Phase{}, &models.ProjectMember{}} {
		var n int64
		require.NoError(t, database.GetDB().Unscoped().Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}

	// the code is free again
	env.createProject("DEL-1")
}

func TestProjectMembers(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject("MEM-1")
	path := fmt.Sprintf("/api/projects/%d/members", project.ID)

	rec := env.do(env.manager, http.MethodPost, path, map[string]interface{}{"user_id": env.member.ID, "role": "Designer"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	member := decode[models.ProjectMember](t, rec)
	assert.Equal(t, "designer", member.Role)

	rec = env.do(env.manager, http.MethodPost, path, map[string]interface{}{"user_id": env.member.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(env.manager, http.MethodPost, path, map[string]interface{}{"user_id": 999})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(env.manager, http.MethodDelete, fmt.Sprintf("%s/%d", path, env.member.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(env.manager, http.MethodDelete, fmt.Sprintf("%s/%d", path, env.member.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPhasesAndMilestones(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject("PH-1")
	base := fmt.Sprintf("/api/projects/%d", project.ID)

	for _, name := range []string{"Concept", "Schematic"} {
		rec := env.do(env.manager, http.MethodPost, base+"/phases", map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec := env.do(env.member, http.MethodGet, base+"/phases", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	phases := decode[[]models.Phase](t, rec)
	require.Len(t, phases, 2)
	assert.Equal(t, 1, phases[0].Sequence)
	assert.Equal(t, "Schematic", phases[1].Name)
	assert.Equal(t, 2, phases[1].Sequence)

	rec = env.do(env.manager, http.MethodPost, base+"/milestones", map[string]interface{}{"title": "Sign-off", "phase_id": phases[0].ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "due date is required")

	rec = env.do(env.manager, http.MethodPost, base+"/milestones", map[string]interface{}{"title": "Sign-off", "phase_id": phases[0].ID, "due_date": "2024-03-01"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	milestone := decode[models.Milestone](t, rec)

	rec = env.do(env.manager, http.MethodPatch, fmt.Sprintf("/api/milestones/%d", milestone.ID), map[string]bool{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	done := decode[models.Milestone](t, rec)
	assert.True(t, done.Completed)
	assert.NotNil(t, done.CompletedAt)

	rec = env.do(env.manager, http.MethodPatch, fmt.Sprintf("/api/milestones/%d", milestone.ID), map[string]bool{"completed": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[models.Milestone](t, rec).CompletedAt)

	rec = env.do(env.member, http.MethodPatch, fmt.Sprintf("/api/milestones/%d", milestone.ID), map[string]bool{"completed": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDocumentsAndActivities(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject("DOC-1")
	base := fmt.Sprintf("/api/projects/%d", project.ID)

	// members need to be on the project
	rec := env.do(env.member, http.MethodGet, base+"/documents", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(env.manager, http.MethodPost, base+"/documents", map[string]interface{}{
		"name": "Site plan",
		"url":  "https://files.example/site.pdf",
		"tags": []string{" Drawings ", "", "site"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[models.Document](t, rec)
	assert.Len(t, doc.StorageKey, 36)
	assert.JSONEq(t, `["drawings","site"]`, string(doc.Tags))

	rec = env.do(env.manager, http.MethodGet, base+"/activities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	activities := decode[[]models.Activity](t, rec)
	require.Len(t, activities, 2)
	assert.Equal(t, "document", activities[0].EntityType)
	assert.Equal(t, "project", activities[1].EntityType)
	require.NotNil(t, activities[0].Actor)
	assert.Equal(t, "maya", activities[0].Actor.Username)
}

func TestLookupFailureIsServerError(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject("ERR-1")
	base := fmt.Sprintf("/api/projects/%d", project.ID)

	require.NoError(t, database.GetDB().Migrator().DropTable(&models.Phase{}, &models.Client{}))

	rec := env.do(env.manager, http.MethodPost, base+"/milestones", map[string]interface{}{"title": "Sign-off", "phase_id": 1, "due_date": "2024-03-01"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())

	rec = env.do(env.manager, http.MethodPatch, base, map[string]interface{}{"client_id": 1})
	assert.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())
}
