package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"

	"studio/config"
	"studio/database"
	"studio/feeds"
	"studio/middleware"
	"studio/models"
)

const testPassword = "secret-pass"

type testEnv struct {
	t       *testing.T
	cfg     *config.Config
	router  http.Handler
	admin   *models.User
	manager *models.User
	member  *models.User
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "0"},
		Auth:     config.AuthConfig{JWTSecret: "test-secret", JWTExpiration: time.Hour, InviteExpiration: 24 * time.Hour},
		App:      config.AppConfig{Environment: "development"},
		Cache:    config.CacheConfig{FeedTTL: time.Minute},
		Airtable: config.AirtableConfig{FlowTable: "Flow Standards", RateLimit: 100},
		Monday:   config.MondayConfig{StatusColumn: "status", TimelineColumn: "timeline"},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithConfig(t, testConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config) *testEnv {
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	require.NoError(t, database.Open("sqlite", dsn, logger.Silent))
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { database.Close() })

	// one connection keeps the in-memory database alive and serializes sqlite access
	sqlDB, err := database.GetDB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	middleware.SetJWTSecret(cfg.Auth.JWTSecret)

	env := &testEnv{
		t:      t,
		cfg:    cfg,
		router: NewRouter(cfg, feeds.NewService(cfg, nil, zap.NewNop()), zap.NewNop()),
	}
	env.admin = env.createUser("admin", models.RoleAdmin, false)
	env.manager = env.createUser("maya", models.RoleManager, false)
	env.member = env.createUser("ravi", models.RoleMember, false)
	return env
}

func (e *testEnv) createUser(username string, role models.Role, mustChange bool) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(e.t, err)

	user := models.User{Username: username, FullName: strings.ToUpper(username[:1]) + username[1:], PasswordHash: string(hash), Role: role}
	require.NoError(e.t, database.GetDB().Create(&user).Error)
	require.NoError(e.t, database.GetDB().Model(&user).Update("must_change_password", mustChange).Error)
	user.MustChangePassword = mustChange
	return &user
}

// do sends a request as user; a nil user sends it unauthenticated.
func (e *testEnv) do(user *models.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := middleware.GenerateToken(user, time.Hour)
		require.NoError(e.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// createProject creates a project through the API as the manager.
func (e *testEnv) createProject(code string) models.Project {
	rec := e.do(e.manager, http.MethodPost, "/api/projects", map[string]interface{}{
		"code": code,
		"name": "Project " + code,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Project](e.t, rec)
}

func (e *testEnv) createTask(user *models.User, projectID uint, title string, extra map[string]interface{}) *httptest.ResponseRecorder {
	body := map[string]interface{}{"project_id": projectID, "title": title}
	for k, v := range extra {
		body[k] = v
	}
	return e.do(user, http.MethodPost, "/api/tasks", body)
}
