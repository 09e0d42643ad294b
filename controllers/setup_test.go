package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/hardikmodi/salestrack_backend/middleware"
	"github.com/hardikmodi/salestrack_backend/models"
	"github.com/hardikmodi/salestrack_backend/repositories"
	"github.com/hardikmodi/salestrack_backend/routes"
)

type testValidator struct {
	validator *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.validator.Struct(i)
}

// seqIDGenerator hands out deterministic chain ids (RT-1, RM-2, ...).
type seqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGenerator) NextID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", prefix, g.n)
}

// newTestServer wires the full route table against the in-memory store
// with no Redis, exactly as production minus the external collaborators.
func newTestServer(t *testing.T) (*echo.Echo, *repositories.MemoryAllocationStore) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}
	store := repositories.NewMemoryAllocationStore()
	routes.RegisterSampleRoutes(e, store, &seqIDGenerator{}, nil)
	return e, store
}

func bearerToken(t *testing.T, empCode, role string) string {
	t.Helper()
	token, err := middleware.GenerateToken(empCode, empCode, role, "West", "Pune")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// recordResponse decodes a creation/fetch response whose data is a single
// allocation record.
type recordResponse struct {
	Status  int                     `json:"status"`
	Message string                  `json:"message"`
	Data    models.AllocationRecord `json:"data"`
}

func decodeRecord(t *testing.T, rec *httptest.ResponseRecorder) models.AllocationRecord {
	t.Helper()
	var resp recordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode record response: %v (body: %s)", err, rec.Body.String())
	}
	return resp.Data
}

type stockResponse struct {
	Status int                  `json:"status"`
	Data   models.StockResponse `json:"data"`
}

func decodeStock(t *testing.T, rec *httptest.ResponseRecorder) models.StockResponse {
	t.Helper()
	var resp stockResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode stock response: %v (body: %s)", err, rec.Body.String())
	}
	return resp.Data
}
