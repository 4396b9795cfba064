package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/cache"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/config"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/domain/user"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/http/middlewares"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/repo/postgres"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/security"
	"github.com/gin-gonic/gin"
)

// fixed page size for admin listings
const usersPerPage = 10

type UsersStore interface {
	UserReader
	List(ctx context.Context, limit, offset int) ([]user.User, int, error)
	UpdateProfile(ctx context.Context, id string, fullName, email *string) (user.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetStatus(ctx context.Context, id string, status user.Status) error
}

// UserLoader is a read-through cache over single-user lookups. Mutating
// handlers call Invalidate so stale records live at most one cache TTL.
type UserLoader struct {
	store UserReader
	cache *cache.Users
}

func NewUserLoader(store UserReader, c *cache.Users) *UserLoader {
	return &UserLoader{store: store, cache: c}
}

func (l *UserLoader) load(ctx context.Context, id string) (user.User, error) {
	if l.cache != nil {
		if u, ok := l.cache.Get(id); ok {
			return u, nil
		}
	}

	u, err := l.store.GetByID(ctx, id)

	if err != nil {
		return user.User{}, err
	}

	if l.cache != nil {
		l.cache.Set(u)
	}

	return u, nil
}

func (l *UserLoader) invalidate(id string) {
	if l.cache != nil {
		l.cache.Invalidate(id)
	}
}

type UsersHandler struct {
	store  UsersStore
	loader *UserLoader
}

func NewUsersHandler(store UsersStore, loader *UserLoader) *UsersHandler {
	return &UsersHandler{store: store, loader: loader}
}

// List is admin-only: one page of users newest-first plus pagination metadata.
func (h *UsersHandler) List(ctx *gin.Context) {
	page, err := strconv.Atoi(ctx.Query("page"))

	if err != nil || page < 1 {
		page = 1
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, total, err := h.store.List(cctx, usersPerPage, (page-1)*usersPerPage)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	totalPages := (total + usersPerPage - 1) / usersPerPage

	RespondOK(ctx, http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"currentPage":  page,
			"totalPages":   totalPages,
			"totalUsers":   total,
			"usersPerPage": usersPerPage,
		},
	})
}

func (h *UsersHandler) GetProfile(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok || id == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.loader.load(cctx, id)

	if err != nil {
		if err == postgres.ErrUserNotFound {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch profile")
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"user": u})
}

type UpdateProfileRequest struct {
	FullName *string `json:"fullName" binding:"omitempty,min=1"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok || id == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if req.FullName == nil && req.Email == nil {
		// nothing supplied; echo the current record
		u, err := h.loader.load(cctx, id)

		if err != nil {
			RespondInternal(ctx, "Could not fetch profile")
			return
		}

		RespondOK(ctx, http.StatusOK, gin.H{"user": u})
		return
	}

	if req.FullName != nil {
		trimmed := strings.TrimSpace(*req.FullName)

		if trimmed == "" {
			RespondBadRequest(ctx, "invalid_request", "Invalid request body", []FieldError{
				{Field: "fullName", Rule: "required", Message: "is required"},
			})
			return
		}

		req.FullName = &trimmed
	}

	if req.Email != nil {
		normalized := user.NormalizeEmail(*req.Email)
		req.Email = &normalized
	}

	u, err := h.store.UpdateProfile(cctx, id, req.FullName, req.Email)

	if err != nil {
		switch err {
		case postgres.ErrEmailTaken:
			RespondBadRequest(ctx, "email_taken", "Email already in use", nil)
		case postgres.ErrUserNotFound:
			RespondNotFound(ctx, "User not found")
		default:
			RespondInternal(ctx, "Could not update profile")
		}
		return
	}

	h.loader.invalidate(id)

	RespondOK(ctx, http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    u,
	})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

func (h *UsersHandler) ChangePassword(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok || id == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req ChangePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := security.ValidatePasswordPolicy(req.NewPassword); err != nil {
		RespondBadRequest(ctx, "weak_password", "New password does not meet the complexity policy", []FieldError{
			{Field: "newPassword", Rule: "password", Message: err.Error()},
		})
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.store.GetByID(cctx, id)

	if err != nil {
		if err == postgres.ErrUserNotFound {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not change password")
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.CurrentPassword); err != nil {
		RespondBadRequest(ctx, "password_mismatch", "Current password is incorrect", nil)
		return
	}

	hash, err := security.HashPassword(req.NewPassword)

	if err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	if err := h.store.UpdatePassword(cctx, id, hash); err != nil {
		RespondInternal(ctx, "Could not change password")
		return
	}

	h.loader.invalidate(id)

	RespondOK(ctx, http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *UsersHandler) Activate(ctx *gin.Context) {
	h.setStatus(ctx, user.StatusActive, "User activated successfully")
}

func (h *UsersHandler) Deactivate(ctx *gin.Context) {
	h.setStatus(ctx, user.StatusInactive, "User deactivated successfully")
}

func (h *UsersHandler) setStatus(ctx *gin.Context, status user.Status, message string) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	target, err := h.store.GetByID(cctx, id)

	if err != nil {
		if err == postgres.ErrUserNotFound {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update user status")
		return
	}

	// admin accounts can never be switched off
	if status == user.StatusInactive && target.Role == user.RoleAdmin {
		RespondBadRequest(ctx, "cannot_deactivate_admin", "Cannot deactivate admin user", nil)
		return
	}

	if err := h.store.SetStatus(cctx, id, status); err != nil {
		if err == postgres.ErrUserNotFound {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update user status")
		return
	}

	h.loader.invalidate(id)

	RespondOK(ctx, http.StatusOK, gin.H{"message": message})
}
