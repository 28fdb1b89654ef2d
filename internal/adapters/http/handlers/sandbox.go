package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/go-api-client/internal/adapters/http/dto"
	"github.com/jsamuelsen/go-api-client/internal/adapters/http/middleware"
	"github.com/jsamuelsen/go-api-client/internal/platform/logging"
)

// MaxSlowDelay caps the delay accepted by the slow endpoint.
const MaxSlowDelay = time.Minute

// TokenRevoker expires bearer tokens.
type TokenRevoker interface {
	Expire(token string)
}

// SandboxHandler serves a small upstream API that speaks the errorType
// contract, so the API client can be exercised end to end.
type SandboxHandler struct {
	tokens middleware.TokenValidator
	logger *slog.Logger
}

// NewSandboxHandler creates a sandbox handler authenticating with tokens.
func NewSandboxHandler(tokens middleware.TokenValidator, logger *slog.Logger) *SandboxHandler {
	return &SandboxHandler{tokens: tokens, logger: logger}
}

// Echo reflects the method, path, body and correlation headers.
// An empty body is allowed; a body that is not a JSON object is rejected
// with BAD_REQUEST.
func (h *SandboxHandler) Echo(c *gin.Context) {
	var body map[string]any

	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		dto.AbortWithErrorType(c, dto.ErrorTypeBadRequest, "body must be a JSON object")
		return
	}

	c.JSON(http.StatusOK, dto.EchoResponse{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Body:          body,
		RequestID:     middleware.GetRequestID(c),
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// Me returns the subject of the bearer token. Requires RequireAuth.
func (h *SandboxHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		dto.AbortWithErrorType(c, dto.ErrorTypeUnauthorized, "authentication required")
		return
	}

	c.JSON(http.StatusOK, dto.MeResponse{Subject: claims.Subject})
}

// ExpireSession revokes the caller's token, so the next authenticated call
// answers ACCESS_TOKEN_EXPIRED.
func (h *SandboxHandler) ExpireSession(c *gin.Context) {
	revoker, ok := h.tokens.(TokenRevoker)
	if !ok {
		dto.AbortWithErrorType(c, dto.ErrorTypeInternal, "tokens cannot be revoked")
		return
	}

	revoker.Expire(middleware.BearerToken(c))

	logging.FromContextOr(c.Request.Context(), h.logger).Info("session expired",
		slog.String("subject", middleware.GetClaims(c).Subject),
	)

	c.Status(http.StatusNoContent)
}

// CreateUser validates a snake_case user body.
func (h *SandboxHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest

	if err := dto.BindAndValidate(c, &req); err != nil {
		if errors.Is(err, dto.ErrValidation) {
			dto.AbortWithValidationErrors(c, dto.ValidationErrors(err))
			return
		}

		dto.AbortWithErrorType(c, dto.ErrorTypeBadRequest, "body must be a JSON object")

		return
	}

	c.JSON(http.StatusCreated, dto.UserResponse{
		ID:       uuid.NewString(),
		UserName: req.UserName,
		Email:    req.Email,
		IsActive: req.IsActive,
	})
}

// Slow waits for ?delay= (a Go duration, default 1s) before answering.
// It gives up with TIMEOUT once the request context ends.
func (h *SandboxHandler) Slow(c *gin.Context) {
	delay := time.Second

	if raw := c.Query("delay"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 || d > MaxSlowDelay {
			dto.AbortWithErrorType(c, dto.ErrorTypeBadRequest, "delay must be a duration up to "+MaxSlowDelay.String())
			return
		}

		delay = d
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		c.JSON(http.StatusOK, gin.H{"waited": delay.String()})
	case <-c.Request.Context().Done():
		dto.AbortWithErrorType(c, dto.ErrorTypeTimeout, "request deadline exceeded")
	}
}

// Fail answers with the status in the path and ?errorType= in the body.
// With ?raw=true the body is plain text instead of JSON.
func (h *SandboxHandler) Fail(c *gin.Context) {
	status, err := strconv.Atoi(c.Param("status"))
	if err != nil || status < http.StatusBadRequest || status > 599 {
		dto.AbortWithErrorType(c, dto.ErrorTypeBadRequest, "status must be between 400 and 599")
		return
	}

	if c.Query("raw") == "true" {
		c.String(status, http.StatusText(status))
		return
	}

	c.AbortWithStatusJSON(status,
		dto.NewErrorResponse(c.Query("errorType"), "requested failure").WithTrace(c.Request.Context()))
}

// RegisterSandboxRoutes registers the sandbox routes on rg:
//   - POST|PUT|PATCH /echo
//   - GET /me, POST /session/expire (bearer token required)
//   - POST /users
//   - GET /slow?delay=
//   - GET /fail/:status?errorType=&raw=
func (h *SandboxHandler) RegisterSandboxRoutes(rg *gin.RouterGroup) {
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch} {
		rg.Handle(method, "/echo", h.Echo)
	}

	authed := rg.Group("", middleware.RequireAuth(h.tokens))
	authed.GET("/me", h.Me)
	authed.POST("/session/expire", h.ExpireSession)

	rg.POST("/users", h.CreateUser)
	rg.GET("/slow", h.Slow)
	rg.GET("/fail/:status", h.Fail)
}
