package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"studio/database"
	"studio/models"
)

func TestRespondError(t *testing.T) {
	cases := map[error]int{
		gorm.ErrRecordNotFound:        http.StatusNotFound,
		badRequest("bad"):             http.StatusBadRequest,
		models.ErrInvalid:             http.StatusBadRequest,
		errors.New("connection lost"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		rec := httptest.NewRecorder()
		respondError(rec, zap.NewNop(), err, "task")
		assert.Equal(t, want, rec.Code, err.Error())
	}
}

func TestRecordActivityFailureIsLogged(t *testing.T) {
	env := newTestEnv(t)
	project := env.createProject("ACT-1")

	require.NoError(t, database.GetDB().Migrator().DropTable(&models.Activity{}))

	core, logs := observer.New(zapcore.WarnLevel)
	recordActivity(zap.New(core), env.manager.ID, &project.ID, "task", 1, "created", nil)

	entries := logs.FilterMessage("failed to record activity").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "task", entries[0].ContextMap()["entity"])
	assert.Equal(t, "created", entries[0].ContextMap()["action"])

	// the request that triggered the entry still succeeds
	rec := env.createTask(env.manager, project.ID, "Survives", nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
