package integration__test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/config"
	apphttp "github.com/Rakesh-Kumar-Meher/user-management-system/internal/http"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// These tests need a real database with the migrations applied. They are
// skipped unless TEST_DB_DSN points at one.

func setupIntegrationRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping postgres integration tests")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	cfg := config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
	}

	router := apphttp.NewRouter(apphttp.Deps{
		Cfg:   cfg,
		Store: postgres.NewUsersRepo(pool, nil),
	})

	return router, pool
}

func resetUsers(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `TRUNCATE users RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate users: %v", err)
	}
}

func post(router http.Handler, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestIntegration_SignupLoginProfile(t *testing.T) {
	router, pool := setupIntegrationRouter(t)
	resetUsers(t, pool)
	defer resetUsers(t, pool)

	// sign up

	w := post(router, "/auth/signup", `{"fullName":"Sam Doe","email":"sam@example.com","password":"Passw0rd"}`, "")

	if w.Code != http.StatusCreated {
		t.Fatalf("signup got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	// the unique index makes the duplicate fail, regardless of name/password

	w = post(router, "/auth/signup", `{"fullName":"Other","email":"SAM@example.com","password":"Differ3nt"}`, "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate signup got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	// login and read the profile back

	w = post(router, "/auth/login", `{"email":"sam@example.com","password":"Passw0rd"}`, "")

	if w.Code != http.StatusOK {
		t.Fatalf("login got status %d, body=%s", w.Code, w.Body.String())
	}

	var loginResp struct {
		Token string `json:"token"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("failed to parse login response: %v body=%s", err, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("profile got status %d, body=%s", rec.Code, rec.Body.String())
	}

	var profile struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("failed to parse profile response: %v", err)
	}

	if profile.User.Email != "sam@example.com" {
		t.Fatalf("profile returned %+v", profile.User)
	}
}
