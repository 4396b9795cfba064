package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/auth"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/config"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/domain/user"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/http/middlewares"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/repo/postgres"
	"github.com/Rakesh-Kumar-Meher/user-management-system/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, fullName, email, passwordHash string, role user.Role) (user.User, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type AuthHandler struct {
	users      *UserLoader
	userWriter UserWriter
	jwt        *auth.Manager
	revoker    TokenRevoker
}

// revoker may be nil; logout then degrades to client-side token discard.
func NewAuthHandler(users *UserLoader, userWriter UserWriter, jwtManager *auth.Manager, revoker TokenRevoker) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwtManager,
		revoker:    revoker,
	}
}

type SignUpRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// binding only sees the raw string; a whitespace-only name trims to nothing
	fullName := strings.TrimSpace(req.FullName)

	if fullName == "" {
		RespondBadRequest(ctx, "invalid_request", "Invalid request body", []FieldError{
			{Field: "fullName", Rule: "required", Message: "is required"},
		})
		return
	}

	if err := security.ValidatePasswordPolicy(req.Password); err != nil {
		RespondBadRequest(ctx, "weak_password", "Password does not meet the complexity policy", []FieldError{
			{Field: "password", Rule: "password", Message: err.Error()},
		})
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	email := user.NormalizeEmail(req.Email)

	// new signups always start as an active regular user

	u, err := h.userWriter.Create(cctx, fullName, email, hash, user.RoleUser)

	if err != nil {
		if err == postgres.ErrEmailTaken {
			RespondBadRequest(ctx, "email_taken", "Email is already registered", nil)
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.jwt.GenerateAccessToken(u.ID, u.Email, string(u.Role))

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	RespondOK(ctx, http.StatusCreated, gin.H{
		"token": token,
		"user":  u,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.store.GetByEmail(cctx, user.NormalizeEmail(req.Email))
	if err != nil {
		// same response for unknown email and bad password
		RespondBadRequest(ctx, "invalid_credentials", "Invalid credentials", nil)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondBadRequest(ctx, "invalid_credentials", "Invalid credentials", nil)
		return
	}

	if foundUser.Status != user.StatusActive {
		RespondForbidden(ctx, "account_inactive", "Your account has been deactivated")
		return
	}

	token, err := h.jwt.GenerateAccessToken(foundUser.ID, foundUser.Email, string(foundUser.Role))

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{
		"token": token,
		"user":  foundUser,
	})
}

// Me resolves the token subject to a live record; a deleted subject means the
// credential no longer identifies anyone.
func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok || id == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.load(cctx, id)

	if err != nil {
		if err == postgres.ErrUserNotFound {
			RespondUnAuthorized(ctx, "unauthorized", "Account no longer exists")
			return
		}
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	RespondOK(ctx, http.StatusOK, gin.H{"user": u})
}

// Logout denylists the presented token for its remaining lifetime so it can
// no longer pass the auth middleware.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if h.revoker != nil {
		raw := strings.TrimSpace(strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer"))

		claims, err := h.jwt.VerifyAccessToken(raw)

		if err == nil && claims.ExpiresAt != nil {
			cctx, cancel := config.WithTimeout(2 * time.Second)

			_ = h.revoker.Revoke(cctx, claims.JTI, time.Until(claims.ExpiresAt.Time))
			cancel()
		}
	}

	RespondOK(ctx, http.StatusOK, gin.H{"message": "Logged out successfully"})
}
