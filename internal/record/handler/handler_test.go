package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/promptkeeper/promptkeeper/internal/record"
	"github.com/promptkeeper/promptkeeper/internal/record/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(svc service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	RegisterRecordRoutes(g, svc)
	return g
}

func do(g *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestRecordLifecycle(t *testing.T) {
	g := newRouter(service.NewMemoryService())

	// CREATE
	w := do(g, http.MethodPost, "/records", `{"key":"u1","remaining":5}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[map[string]interface{}](t, w)
	assert.Equal(t, "u1", created["key"])
	assert.EqualValues(t, 5, created["remaining"])
	assert.Equal(t, []interface{}{}, created["prompts"])
	assert.NotEmpty(t, created["id"])

	// APPEND (legacy path)
	w = do(g, http.MethodPost, "/prompts", `{"key":"u1","tags":["a"],"heading":"H","bodyText":"B"}`)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[record.Record](t, w)
	require.Len(t, rec.Prompts, 1)
	assert.Equal(t, "H", rec.Prompts[0].Heading)
	assert.Equal(t, []string{"a"}, rec.Prompts[0].Tags)
	assert.False(t, rec.Prompts[0].ID.IsZero())

	// PROMPTS
	w = do(g, http.MethodGet, "/prompts/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Prompts []record.Prompt `json:"prompts"`
	}](t, w)
	require.Len(t, got.Prompts, 1)
	assert.Equal(t, rec.Prompts[0].ID, got.Prompts[0].ID)

	// LIST
	w = do(g, http.MethodGet, "/records", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]record.Record](t, w)
	require.Len(t, list, 1)

	// DELETE
	w = do(g, http.MethodDelete, "/records/u1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	// GET after delete
	w = do(g, http.MethodGet, "/records/u1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[map[string]string](t, w), "error")
}

func TestCreateRecordValidation(t *testing.T) {
	g := newRouter(service.NewMemoryService())

	w := do(g, http.MethodPost, "/records", `{"remaining":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodPost, "/records", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodPost, "/records", `{"key":"u1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, record.DefaultRemaining, decode[record.Record](t, w).Remaining)

	w = do(g, http.MethodPost, "/records", `{"key":"u1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListEmptyIsArray(t *testing.T) {
	g := newRouter(service.NewMemoryService())
	w := do(g, http.MethodGet, "/records", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestPatchRecord(t *testing.T) {
	g := newRouter(service.NewMemoryService())
	require.Equal(t, http.StatusCreated, do(g, http.MethodPost, "/records", `{"key":"u1","remaining":5}`).Code)

	w := do(g, http.MethodPatch, "/records/u1", `{"remaining":3,"key":"ignored"}`)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[record.Record](t, w)
	assert.Equal(t, "u1", rec.Key)
	assert.Equal(t, 3, rec.Remaining)

	w = do(g, http.MethodPatch, "/records/u1", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[record.Record](t, w).Remaining)

	w = do(g, http.MethodPatch, "/records/ghost", `{"remaining":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(g, http.MethodDelete, "/records/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAppendWithIndustryAndReport(t *testing.T) {
	g := newRouter(service.NewMemoryService())

	w := do(g, http.MethodGet, "/prompts/industry", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	require.Equal(t, http.StatusCreated, do(g, http.MethodPost, "/records", `{"key":"u1"}`).Code)
	require.Equal(t, http.StatusCreated, do(g, http.MethodPost, "/records", `{"key":"u2"}`).Code)

	for _, c := range []struct{ key, industry string }{{"u1", "x"}, {"u1", "x"}, {"u2", "y"}} {
		w = do(g, http.MethodPut, "/prompts/"+c.key, `{"tags":[],"heading":"h","bodyText":"b","industry":"`+c.industry+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
	// legacy appends carry no industry and are left out of the report
	w = do(g, http.MethodPost, "/prompts", `{"key":"u2","heading":"h","bodyText":"b","industry":"y"}`)
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode[record.Record](t, w)
	assert.Empty(t, rec.Prompts[len(rec.Prompts)-1].Industry)

	w = do(g, http.MethodGet, "/prompts/industry", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"_id":"x","count":2}]`, w.Body.String())

	w = do(g, http.MethodPut, "/prompts/ghost", `{"heading":"h","bodyText":"b"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(g, http.MethodPost, "/prompts", `{"key":"ghost","heading":"h","bodyText":"b"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(g, http.MethodGet, "/prompts/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemovePrompt(t *testing.T) {
	g := newRouter(service.NewMemoryService())
	require.Equal(t, http.StatusCreated, do(g, http.MethodPost, "/records", `{"key":"u1"}`).Code)
	w := do(g, http.MethodPut, "/prompts/u1", `{"heading":"h","bodyText":"b"}`)
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[record.Record](t, w).Prompts[0].ID.Hex()

	// no match leaves the record unchanged
	w = do(g, http.MethodDelete, "/prompts/u1", `{"promptId":"000000000000000000000000"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "false", w.Header().Get(RemovedHeader))
	assert.Len(t, decode[record.Record](t, w).Prompts, 1)

	w = do(g, http.MethodDelete, "/prompts/u1", `{"promptId":"not-an-id"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "false", w.Header().Get(RemovedHeader))

	w = do(g, http.MethodDelete, "/prompts/u1", `{"promptId":"`+id+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get(RemovedHeader))
	assert.Empty(t, decode[record.Record](t, w).Prompts)

	w = do(g, http.MethodDelete, "/prompts/ghost", `{"promptId":"`+id+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type fakeObjects struct{}

func (fakeObjects) UploadFile(_ context.Context, _ string, r io.Reader, _ int64, _ string) error {
	_, err := io.Copy(io.Discard, r)
	return err
}

func (fakeObjects) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.test/" + key, nil
}

type failingObjects struct{ fakeObjects }

func (failingObjects) UploadFile(context.Context, string, io.Reader, int64, string) error {
	return errors.New("bucket gone")
}

func TestExportSnapshot(t *testing.T) {
	w := do(newRouter(service.NewMemoryService()), http.MethodPost, "/records/export", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	g := newRouter(service.NewMemoryService(service.WithObjectStore(fakeObjects{}, time.Minute)))
	require.Equal(t, http.StatusCreated, do(g, http.MethodPost, "/records", `{"key":"u1"}`).Code)
	w = do(g, http.MethodPost, "/records/export", "")
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decode[record.Snapshot](t, w)
	assert.Equal(t, 1, snap.Records)
	assert.True(t, strings.HasPrefix(snap.Key, "snapshots/records-"))
	assert.Equal(t, "https://objects.test/"+snap.Key, snap.URL)

	g = newRouter(service.NewMemoryService(service.WithObjectStore(failingObjects{}, time.Minute)))
	w = do(g, http.MethodPost, "/records/export", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
