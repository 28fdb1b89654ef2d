package acl

import (
	"net/http"
	"testing"

	"github.com/jsamuelsen/go-api-client/internal/adapters/clients"
)

// BenchmarkSnakeCaseKeys measures the per-request body rewrite.
func BenchmarkSnakeCaseKeys(b *testing.B) {
	body := map[string]any{
		"userName":     "a",
		"emailAddress": "a@example.com",
		"isActive":     true,
		"createdAt":    "2024-01-01T00:00:00Z",
		"homeAddress":  map[string]any{"zipCode": "10115"},
		"tags":         []any{"x", "y"},
	}

	b.ReportAllocs()

	for b.Loop() {
		_ = SnakeCaseKeys(body)
	}
}

// BenchmarkClassify_Responded measures errorType parsing of an error body.
func BenchmarkClassify_Responded(b *testing.B) {
	classifier := NewClassifier(nil)
	failure := &clients.Failure{
		Kind: clients.FailureResponded,
		Response: &clients.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       []byte(`{"errorType":"ACCESS_TOKEN_EXPIRED","message":"token expired"}`),
		},
	}

	b.ReportAllocs()

	for b.Loop() {
		_ = classifier.Classify(failure)
	}
}
