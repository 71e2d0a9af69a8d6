package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebase/internal/app/apptest"
	"ebase/internal/core/apperror"
	"ebase/internal/core/types"
	v1 "ebase/internal/infrastructure/http/v1"
	"ebase/internal/infrastructure/http/v1/middleware"
	"ebase/internal/infrastructure/storage/postgres"
	"ebase/pkg/logger"
)

type storedResponse struct {
	done        bool
	status      int
	contentType string
	body        []byte
}

// memoryIdempotency is a process-local middleware.IdempotencyStore.
type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]*storedResponse
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: map[string]*storedResponse{}}
}

func (m *memoryIdempotency) AcquireKey(_ context.Context, key, _, _, _ string) (*postgres.IdempotencyReplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.keys[key]
	if !ok {
		m.keys[key] = &storedResponse{}
		return nil, nil
	}
	if !r.done {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	return &postgres.IdempotencyReplay{StatusCode: r.status, ContentType: r.contentType, Body: r.body}, nil
}

func (m *memoryIdempotency) CompleteKey(_ context.Context, key string, status int, contentType string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = &storedResponse{done: true, status: status, contentType: contentType, body: body}
	return nil
}

func (m *memoryIdempotency) FailKey(ctx context.Context, key string, status int, contentType string, body []byte) error {
	return m.CompleteKey(ctx, key, status, contentType, body)
}

func (m *memoryIdempotency) ReleaseKey(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

type fixture struct {
	env    *apptest.Env
	router *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := apptest.New(t)
	router, err := v1.NewRouter(v1.RouterConfig{
		Services:    env.Svc,
		Logger:      logger.NewNop(),
		Idempotency: newMemoryIdempotency(),
	})
	require.NoError(t, err)
	return &fixture{env: env, router: router}
}

func (f *fixture) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, "u-1")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParts_CreateDuplicateAndUpdate(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{"article": "F-100", "name": "Фильтр", "unit": "шт."}

	w := f.do(http.MethodPost, "/api/v1/parts", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	partID := created["id"].(string)

	w = f.do(http.MethodPost, "/api/v1/parts", body)
	require.Equal(t, http.StatusConflict, w.Code)
	res := decode(t, w)
	assert.Equal(t, apperror.CodeDuplicate, res["code"])
	assert.Equal(t, "article", res["details"].(map[string]any)["field"])

	w = f.do(http.MethodPut, "/api/v1/parts/"+partID, map[string]any{"name": "Фильтр тонкий", "version": 99})
	assert.Equal(t, http.StatusConflict, w.Code, "a stale version is rejected")

	w = f.do(http.MethodPut, "/api/v1/parts/"+partID, map[string]any{"name": "Фильтр тонкий", "version": created["version"]})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Фильтр тонкий", decode(t, w)["name"])
}

func TestParts_InvalidIDIsRejected(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/parts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeInvalidInput, decode(t, w)["code"])
}

func TestShipment_OverdrawIsRejected(t *testing.T) {
	f := newFixture(t)
	p := f.env.Part("F-100", "Фильтр", false)
	f.env.Supply(p.ID, 6, "")

	line := func(qty int) map[string]any {
		return map[string]any{
			"lines": []map[string]any{{"partId": p.ID.String(), "quantity": qty}},
		}
	}

	w := f.do(http.MethodPost, "/api/v1/shipments", line(7))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, apperror.CodeInsufficientStock, decode(t, w)["code"])
	assert.Equal(t, types.NewQuantity(6), f.env.Qty(p.ID, ""))

	w = f.do(http.MethodPost, "/api/v1/shipments", line(6))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Zero(t, f.env.Qty(p.ID, ""))
}

func TestSupply_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	p := f.env.Part("F-100", "Фильтр", true)
	body := map[string]any{"partId": p.ID.String(), "quantity": "5", "expirationDate": "2026-01-01"}

	first := f.do(http.MethodPost, "/api/v1/supplies", body, middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := f.do(http.MethodPost, "/api/v1/supplies", body, middleware.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replay"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	assert.Equal(t, types.NewQuantity(5), f.env.Qty(p.ID, "2026-01-01"), "the replay did not supply twice")
}

func TestSupply_BadDateIsAttributed(t *testing.T) {
	f := newFixture(t)
	p := f.env.Part("F-100", "Фильтр", true)

	w := f.do(http.MethodPost, "/api/v1/supplies", map[string]any{
		"partId": p.ID.String(), "quantity": 1, "expirationDate": "01.01.2026",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStock_ListAvailabilityAndExport(t *testing.T) {
	f := newFixture(t)
	p := f.env.Part("F-100", "Фильтр", true)
	f.env.Supply(p.ID, 2, "2026-01-01")
	f.env.Supply(p.ID, 3, "2027-01-01")

	w := f.do(http.MethodGet, "/api/v1/stock?partId="+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, decode(t, w)["totalCount"])

	w = f.do(http.MethodGet, "/api/v1/stock/parts/"+p.ID.String()+"/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 5, decode(t, w)["total"])

	w = f.do(http.MethodGet, "/api/v1/stock/reconcile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["consistent"])

	w = f.do(http.MethodGet, "/api/v1/stock/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip container")
}

func TestRepair_UnknownActKind(t *testing.T) {
	f := newFixture(t)
	card := f.env.Card("ABC", "SN-1", true)

	w := f.do(http.MethodPost, "/api/v1/repairs", map[string]any{
		"equipmentAccountingId": card.AccountingID.String(),
		"begDate":               "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	repairID := decode(t, w)["id"].(string)

	w = f.do(http.MethodPost, "/api/v1/repairs/"+repairID+"/acts/invoice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/v1/repairs/"+repairID+"/acts/repair", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "nothing generated yet")

	w = f.do(http.MethodPost, "/api/v1/repairs/"+repairID+"/close", map[string]any{"endDate": "2025-03-05"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotNil(t, decode(t, w)["endDate"])
}
