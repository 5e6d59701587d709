package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/batch"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/httpapi/handlers"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/models"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/logger"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/workflow"
)

type stubWorkflows struct {
	frames int
	err    error
	probed int
}

func (s *stubWorkflows) Frames(context.Context, models.Item) (int, error) {
	s.probed++
	return s.frames, s.err
}

func (s *stubWorkflows) Graph(item models.Item, frames int) workflow.Graph {
	return workflow.NewBuilder(workflow.DefaultSettings()).Build(item.Subject, item.Audio, frames)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func testItems() []models.Item {
	return models.Items(
		[]models.Subject{{Name: "x", Frame: "f.png", Face: "c.png", Width: 100, Height: 200}},
		[]string{"a.wav", "b.wav"},
	)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func newTestRouter(wf *stubWorkflows, deps func(*handlers.Deps)) http.Handler {
	d := handlers.Deps{
		Progress:  batch.NewProgress("run_test", testItems()),
		Workflows: wf,
		ComfyUI:   stubPinger{},
		Log:       logger.Discard(),
	}
	if deps != nil {
		deps(&d)
	}
	return NewRouter(d)
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestRouter(&stubWorkflows{}, nil), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "run_test", body["run_id"])
	assert.NotContains(t, body, "checks")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthDeep(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	router := newTestRouter(&stubWorkflows{}, func(d *handlers.Deps) {
		d.RDB = rdb
	})
	rec := get(t, router, "/health?deep=true")

	var body struct {
		Status string                    `json:"status"`
		Checks map[string]map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["comfyui"]["status"])
	assert.Equal(t, "ok", body.Checks["redis"]["status"])
	assert.Equal(t, "disabled", body.Checks["postgres"]["status"])
}

func TestHealthDeepDegraded(t *testing.T) {
	router := newTestRouter(&stubWorkflows{}, func(d *handlers.Deps) {
		d.ComfyUI = stubPinger{err: errors.Unavailable("comfyui")}
	})
	rec := get(t, router, "/health?deep=true")

	var body struct {
		Status string                    `json:"status"`
		Checks map[string]map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "error", body.Checks["comfyui"]["status"])
}

func TestProgress(t *testing.T) {
	rec := get(t, newTestRouter(&stubWorkflows{}, nil), "/progress")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap batch.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, batch.RunRunning, snap.State)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "b.wav", snap.Items[1].Audio)
	assert.Equal(t, batch.ItemPending, snap.Items[1].State)
}

func TestGetItem(t *testing.T) {
	router := newTestRouter(&stubWorkflows{}, nil)

	rec := get(t, router, "/items/2")
	require.Equal(t, http.StatusOK, rec.Code)
	var st batch.ItemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 2, st.Index)
	assert.Equal(t, "x", st.Subject.Name)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/items/3").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/items/zero").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, router, "/items/0").Code)
}

func TestGetItemWorkflow(t *testing.T) {
	wf := &stubWorkflows{frames: 251}
	rec := get(t, newTestRouter(wf, nil), "/items/1/workflow")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "251", rec.Header().Get(handlers.FramesHeader))
	assert.Equal(t, 1, wf.probed)

	var graph map[string]struct {
		ClassType string         `json:"class_type"`
		Inputs    map[string]any `json:"inputs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	assert.Equal(t, float64(251), graph["8"].Inputs["num_frames"])
	assert.Equal(t, "IT_x_a", graph["16"].Inputs["filename_prefix"])
}

func TestGetItemWorkflowProbeError(t *testing.T) {
	wf := &stubWorkflows{err: errors.New(errors.CodeInvalidAudio, "not a WAV file")}
	rec := get(t, newTestRouter(wf, nil), "/items/1/workflow")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_AUDIO")
}
