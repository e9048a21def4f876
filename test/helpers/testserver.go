package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"medimind_backend/database"
	"medimind_backend/internal/app"
	"medimind_backend/internal/config"
	"medimind_backend/internal/logger"
	"medimind_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// TestServer serves requests through the real router but executes
// them in-process, so each request can carry a test transaction in
// its context. DBMiddleware prefers that transaction over the pool,
// which lets every test roll back its writes.
type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
}

func NewTestServer(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	config.LoadConfig()
	cfg := config.GetConfig()
	logger.Init(cfg.Server.Env)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database (%s): %v", cfg.Database.DSN, err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	router, err := app.SetupRouter(cfg, db)
	if err != nil {
		t.Fatalf("Failed to set up router: %v", err)
	}

	return &TestServer{Router: router, DB: db}
}

func (ts *TestServer) Close() {
	sqlDB, _ := ts.DB.DB()
	sqlDB.Close()
}

func (ts *TestServer) BeginTransaction(t *testing.T) *gorm.DB {
	tx := ts.DB.Begin()
	if tx.Error != nil {
		t.Fatalf("Failed to begin test transaction: %v", tx.Error)
	}
	return tx
}

func (ts *TestServer) RollbackTransaction(t *testing.T, tx *gorm.DB) {
	if err := tx.Rollback().Error; err != nil && err != gorm.ErrInvalidTransaction {
		t.Logf("Rollback failed: %v", err)
	}
}

// SendRequest executes a request against the router with the test
// transaction bound to it. An empty token sends no Authorization
// header.
func (ts *TestServer) SendRequest(t *testing.T, tx *gorm.DB, method, path, token string, body interface{}) (*http.Response, string) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return ts.do(req, tx)
}

// SendAdminRequest is SendRequest with the admin cookie instead of a
// Bearer token.
func (ts *TestServer) SendAdminRequest(t *testing.T, tx *gorm.DB, method, path string, cookie *http.Cookie, body interface{}) (*http.Response, string) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return ts.do(req, tx)
}

// SendRawRequest posts a pre-marshaled payload with custom headers.
// Used by webhook tests, where the raw bytes must match the
// signature.
func (ts *TestServer) SendRawRequest(t *testing.T, tx *gorm.DB, method, path string, payload []byte, headers map[string]string) (*http.Response, string) {
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return ts.do(req, tx)
}

func (ts *TestServer) do(req *http.Request, tx *gorm.DB) (*http.Response, string) {
	if tx != nil {
		ctx := context.WithValue(req.Context(), contextkeys.DBContextKey, tx)
		req = req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	ts.Router.ServeHTTP(rec, req)

	res := rec.Result()
	return res, rec.Body.String()
}
