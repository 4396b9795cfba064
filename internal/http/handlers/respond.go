package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every response carries the success flag; failures add a machine code, a
// human message and optionally per-field errors.

func RespondOK(ctx *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}

	for k, v := range payload {
		body[k] = v
	}

	ctx.JSON(status, body)
}

func RespondError(ctx *gin.Context, status int, code, message string, fieldErrors interface{}) {
	body := gin.H{
		"success": false,
		"code":    code,
		"message": message,
	}

	if id := requestIDFrom(ctx); id != "" {
		body["requestId"] = id
	}

	if fieldErrors != nil {
		body["errors"] = fieldErrors
	}

	ctx.JSON(status, body)
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondBadRequest(ctx *gin.Context, code, message string, fieldErrors interface{}) {
	RespondError(ctx, http.StatusBadRequest, code, message, fieldErrors)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusForbidden, code, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}
