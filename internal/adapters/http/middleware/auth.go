package middleware

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/go-api-client/internal/adapters/http/dto"
	"github.com/jsamuelsen/go-api-client/internal/platform/logging"
)

const (
	// ContextKeyClaims is the gin context key for storing extracted claims.
	ContextKeyClaims = "claims"

	// HeaderAuthorization carries the bearer token.
	HeaderAuthorization = "Authorization"

	bearerPrefix = "Bearer "
)

// TokenStatus is the outcome of a token lookup.
type TokenStatus int

const (
	// TokenUnknown means the token was never issued.
	TokenUnknown TokenStatus = iota
	// TokenValid means the token is accepted.
	TokenValid
	// TokenExpired means the token was issued but is no longer accepted.
	TokenExpired
)

// TokenValidator resolves bearer tokens to subjects.
type TokenValidator interface {
	Lookup(token string) (subject string, status TokenStatus)
}

// Claims represents the authenticated caller.
type Claims struct {
	// Subject is the user ID the token was issued to.
	Subject string
}

// StaticTokens is an in-memory TokenValidator. Tokens can be revoked at
// runtime, which moves them to the expired set.
type StaticTokens struct {
	mu      sync.RWMutex
	valid   map[string]string
	expired map[string]struct{}
}

// NewStaticTokens builds a validator from "token=subject" pairs and a list of
// expired tokens. A pair without "=" uses the token as its own subject.
func NewStaticTokens(valid, expired []string) *StaticTokens {
	s := &StaticTokens{
		valid:   make(map[string]string, len(valid)),
		expired: make(map[string]struct{}, len(expired)),
	}

	for _, pair := range valid {
		token, subject, found := strings.Cut(strings.TrimSpace(pair), "=")
		if token == "" {
			continue
		}

		if !found {
			subject = token
		}

		s.valid[token] = subject
	}

	for _, token := range expired {
		if token = strings.TrimSpace(token); token != "" {
			s.expired[token] = struct{}{}
		}
	}

	return s
}

// Lookup implements TokenValidator.
func (s *StaticTokens) Lookup(token string) (string, TokenStatus) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.expired[token]; ok {
		return "", TokenExpired
	}

	if subject, ok := s.valid[token]; ok {
		return subject, TokenValid
	}

	return "", TokenUnknown
}

// Expire revokes a valid token.
func (s *StaticTokens) Expire(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.valid, token)
	s.expired[token] = struct{}{}
}

// BearerToken extracts the token from the Authorization header.
// Returns "" when the header is missing or not a bearer credential.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader(HeaderAuthorization)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}

	return strings.TrimSpace(header[len(bearerPrefix):])
}

// GetClaims retrieves claims from the gin context.
// Returns nil if claims are not present.
func GetClaims(c *gin.Context) *Claims {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		if cl, ok := claims.(*Claims); ok {
			return cl
		}
	}

	return nil
}

// RequireAuth returns middleware that requires a valid bearer token.
// A missing or unknown token is rejected with UNAUTHORIZED, an expired one
// with ACCESS_TOKEN_EXPIRED. Both use 401.
func RequireAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abortUnauthorized(c, dto.ErrorTypeUnauthorized, "authentication required")
			return
		}

		subject, status := tokens.Lookup(token)

		switch status {
		case TokenValid:
			c.Set(ContextKeyClaims, &Claims{Subject: subject})
			c.Next()
		case TokenExpired:
			abortUnauthorized(c, dto.ErrorTypeAccessTokenExpired, "access token expired")
		default:
			abortUnauthorized(c, dto.ErrorTypeUnauthorized, "invalid access token")
		}
	}
}

func abortUnauthorized(c *gin.Context, errorType, message string) {
	logging.FromContext(c.Request.Context()).Debug("request rejected",
		slog.String("error_type", errorType),
		slog.String("path", c.Request.URL.Path),
	)

	dto.AbortWithErrorType(c, errorType, message)
}
