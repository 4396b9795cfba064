package http_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/domain/user"
)

type listResponse struct {
	Success    bool          `json:"success"`
	Users      []userPayload `json:"users"`
	Pagination struct {
		CurrentPage  int `json:"currentPage"`
		TotalPages   int `json:"totalPages"`
		TotalUsers   int `json:"totalUsers"`
		UsersPerPage int `json:"usersPerPage"`
	} `json:"pagination"`
}

func TestListUsers_AdminOnly(t *testing.T) {
	router, repo, _ := setupRouter(t)

	hash := passwordHash(t, "Passw0rd")
	seedUser(t, repo, "Admin", "admin@x.com", hash, user.RoleAdmin)
	seedUser(t, repo, "Alice", "alice@x.com", hash, user.RoleUser)

	// unauthenticated request never reaches the role check
	if w := doRequest(router, http.MethodGet, "/users", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list got status %d, want %d", w.Code, http.StatusUnauthorized)
	}

	userToken := login(t, router, "alice@x.com", "Passw0rd")

	w := doRequest(router, http.MethodGet, "/users", "", userToken)

	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin list got status %d, want %d, body=%s", w.Code, http.StatusForbidden, w.Body.String())
	}

	adminToken := login(t, router, "admin@x.com", "Passw0rd")

	if w := doRequest(router, http.MethodGet, "/users", "", adminToken); w.Code != http.StatusOK {
		t.Fatalf("admin list got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestListUsers_Pagination(t *testing.T) {
	router, repo, _ := setupRouter(t)

	hash := passwordHash(t, "Passw0rd")
	seedUser(t, repo, "Admin", "admin@x.com", hash, user.RoleAdmin)

	// 24 regular users + 1 admin = 25 total, so 3 pages of 10
	for i := 0; i < 24; i++ {
		seedUser(t, repo, fmt.Sprintf("User %02d", i), fmt.Sprintf("user%02d@x.com", i), hash, user.RoleUser)
	}

	adminToken := login(t, router, "admin@x.com", "Passw0rd")

	var first listResponse

	w := doRequest(router, http.MethodGet, "/users?page=1", "", adminToken)
	mustReadJSON(t, w, &first)

	if len(first.Users) != 10 {
		t.Fatalf("page 1 returned %d users, want 10", len(first.Users))
	}

	if first.Pagination.TotalUsers != 25 || first.Pagination.TotalPages != 3 || first.Pagination.UsersPerPage != 10 {
		t.Fatalf("unexpected pagination metadata: %+v", first.Pagination)
	}

	// newest first: the last seeded user leads the listing
	if first.Users[0].FullName != "User 23" {
		t.Fatalf("expected newest user first, got %q", first.Users[0].FullName)
	}

	// the hash column must not leak through listings either
	if strings.Contains(w.Body.String(), "passwordHash") {
		t.Fatalf("listing leaked password material: %s", w.Body.String())
	}

	var last listResponse

	w = doRequest(router, http.MethodGet, "/users?page=3", "", adminToken)
	mustReadJSON(t, w, &last)

	if len(last.Users) != 5 {
		t.Fatalf("page 3 returned %d users, want 5", len(last.Users))
	}

	// beyond the final page is an empty list, not an error
	var beyond listResponse

	w = doRequest(router, http.MethodGet, "/users?page=9", "", adminToken)

	if w.Code != http.StatusOK {
		t.Fatalf("beyond-range page got status %d, body=%s", w.Code, w.Body.String())
	}

	mustReadJSON(t, w, &beyond)

	if len(beyond.Users) != 0 {
		t.Fatalf("beyond-range page returned %d users, want 0", len(beyond.Users))
	}

	if beyond.Pagination.TotalUsers != 25 {
		t.Fatalf("beyond-range page lost the total: %+v", beyond.Pagination)
	}

	// junk page parameters fall back to page 1
	var junk listResponse

	w = doRequest(router, http.MethodGet, "/users?page=zero", "", adminToken)
	mustReadJSON(t, w, &junk)

	if junk.Pagination.CurrentPage != 1 || len(junk.Users) != 10 {
		t.Fatalf("junk page parameter not defaulted: %+v", junk.Pagination)
	}
}

func TestGetAndUpdateProfile(t *testing.T) {
	router, repo, _ := setupRouter(t)

	hash := passwordHash(t, "Passw0rd")
	seedUser(t, repo, "Alice", "alice@x.com", hash, user.RoleUser)
	seedUser(t, repo, "Bob", "bob@x.com", hash, user.RoleUser)

	token := login(t, router, "alice@x.com", "Passw0rd")

	var profile authResponse

	w := doRequest(router, http.MethodGet, "/users/profile", "", token)

	if w.Code != http.StatusOK {
		t.Fatalf("profile got status %d, body=%s", w.Code, w.Body.String())
	}

	mustReadJSON(t, w, &profile)

	if profile.User.FullName != "Alice" {
		t.Fatalf("profile returned %+v", profile.User)
	}

	// partial update: name only
	w = doRequest(router, http.MethodPut, "/users/profile", `{"fullName":"Alice Cooper"}`, token)

	if w.Code != http.StatusOK {
		t.Fatalf("name update got status %d, body=%s", w.Code, w.Body.String())
	}

	var updated authResponse
	mustReadJSON(t, w, &updated)

	if updated.User.FullName != "Alice Cooper" || updated.User.Email != "alice@x.com" {
		t.Fatalf("partial update touched the wrong fields: %+v", updated.User)
	}

	// a whitespace-only name trims to nothing and must be refused
	w = doRequest(router, http.MethodPut, "/users/profile", `{"fullName":"   "}`, token)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank-name update got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	mustReadJSON(t, doRequest(router, http.MethodGet, "/users/profile", "", token), &updated)

	if updated.User.FullName != "Alice Cooper" {
		t.Fatalf("blank-name update changed the stored name: %+v", updated.User)
	}

	// taking another user's email is a conflict
	w = doRequest(router, http.MethodPut, "/users/profile", `{"email":"bob@x.com"}`, token)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("email conflict got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var conflict errorResponse
	mustReadJSON(t, w, &conflict)

	if conflict.Code != "email_taken" {
		t.Fatalf("expected email_taken, got %q", conflict.Code)
	}

	// a fresh unclaimed email is fine, and is normalized on the way in
	w = doRequest(router, http.MethodPut, "/users/profile", `{"email":"Alice.Cooper@X.com"}`, token)

	if w.Code != http.StatusOK {
		t.Fatalf("email update got status %d, body=%s", w.Code, w.Body.String())
	}

	mustReadJSON(t, w, &updated)

	if updated.User.Email != "alice.cooper@x.com" {
		t.Fatalf("email not normalized: %+v", updated.User)
	}
}

func TestChangePassword_Lifecycle(t *testing.T) {
	router, repo, _ := setupRouter(t)

	seedUser(t, repo, "Alice", "alice@x.com", passwordHash(t, "Passw0rd"), user.RoleUser)

	token := login(t, router, "alice@x.com", "Passw0rd")

	// wrong current password
	w := doRequest(router, http.MethodPut, "/users/password", `{"currentPassword":"Wrong0ne","newPassword":"N3wSecret"}`, token)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong current password got status %d, body=%s", w.Code, w.Body.String())
	}

	var mismatch errorResponse
	mustReadJSON(t, w, &mismatch)

	if mismatch.Code != "password_mismatch" {
		t.Fatalf("expected password_mismatch, got %q", mismatch.Code)
	}

	// weak replacement password
	w = doRequest(router, http.MethodPut, "/users/password", `{"currentPassword":"Passw0rd","newPassword":"weakpassword"}`, token)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("weak new password got status %d, body=%s", w.Code, w.Body.String())
	}

	// valid change
	w = doRequest(router, http.MethodPut, "/users/password", `{"currentPassword":"Passw0rd","newPassword":"N3wSecret"}`, token)

	if w.Code != http.StatusOK {
		t.Fatalf("password change got status %d, body=%s", w.Code, w.Body.String())
	}

	// the old password is dead, the new one works
	wOld := doRequest(router, http.MethodPost, "/auth/login", `{"email":"alice@x.com","password":"Passw0rd"}`, "")

	if wOld.Code != http.StatusBadRequest {
		t.Fatalf("old password still accepted: status %d", wOld.Code)
	}

	login(t, router, "alice@x.com", "N3wSecret")
}

func TestActivateDeactivate(t *testing.T) {
	router, repo, _ := setupRouter(t)

	hash := passwordHash(t, "Passw0rd")
	admin := seedUser(t, repo, "Admin", "admin@x.com", hash, user.RoleAdmin)
	target := seedUser(t, repo, "Alice", "alice@x.com", hash, user.RoleUser)

	adminToken := login(t, router, "admin@x.com", "Passw0rd")

	// unknown id
	w := doRequest(router, http.MethodPatch, "/users/no-such-id/deactivate", "", adminToken)

	if w.Code != http.StatusNotFound {
		t.Fatalf("deactivate(unknown) got status %d, want %d", w.Code, http.StatusNotFound)
	}

	// admins are untouchable
	w = doRequest(router, http.MethodPatch, "/users/"+admin.ID+"/deactivate", "", adminToken)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("deactivate(admin) got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var refused errorResponse
	mustReadJSON(t, w, &refused)

	if refused.Code != "cannot_deactivate_admin" {
		t.Fatalf("expected cannot_deactivate_admin, got %q", refused.Code)
	}

	// deactivate then reactivate a regular user
	w = doRequest(router, http.MethodPatch, "/users/"+target.ID+"/deactivate", "", adminToken)

	if w.Code != http.StatusOK {
		t.Fatalf("deactivate got status %d, body=%s", w.Code, w.Body.String())
	}

	got, err := repo.GetByID(t.Context(), target.ID)

	if err != nil || got.Status != user.StatusInactive {
		t.Fatalf("expected inactive status, got %+v err=%v", got, err)
	}

	// setting the same status twice is not an error
	if w := doRequest(router, http.MethodPatch, "/users/"+target.ID+"/deactivate", "", adminToken); w.Code != http.StatusOK {
		t.Fatalf("repeated deactivate got status %d", w.Code)
	}

	w = doRequest(router, http.MethodPatch, "/users/"+target.ID+"/activate", "", adminToken)

	if w.Code != http.StatusOK {
		t.Fatalf("activate got status %d, body=%s", w.Code, w.Body.String())
	}

	got, err = repo.GetByID(t.Context(), target.ID)

	if err != nil || got.Status != user.StatusActive {
		t.Fatalf("expected active status after round trip, got %+v err=%v", got, err)
	}

	// role gating applies to status changes too
	userToken := login(t, router, "alice@x.com", "Passw0rd")

	w = doRequest(router, http.MethodPatch, "/users/"+target.ID+"/deactivate", "", userToken)

	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin deactivate got status %d, want %d", w.Code, http.StatusForbidden)
	}
}
