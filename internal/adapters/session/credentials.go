package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jsamuelsen/go-api-client/internal/adapters/storage"
	"github.com/jsamuelsen/go-api-client/internal/domain"
)

// Credentials is the session persisted between runs under the persist key.
// Removing that key is what signs the user out for good.
type Credentials struct {
	Token   string `json:"token"`
	Subject string `json:"subject"`
}

// KeyValue is the subset of the persisted store the credentials need.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// LoadCredentials reads credentials stored under key.
// Returns nil without error when nothing is stored.
func LoadCredentials(ctx context.Context, kv KeyValue, key string) (*Credentials, error) {
	raw, err := kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil //nolint:nilnil // absence is not an error
	}

	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	var c Credentials
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}

	if c.Token == "" {
		return nil, nil //nolint:nilnil // an empty token is no session
	}

	return &c, nil
}

// SaveCredentials stores c under key.
func SaveCredentials(ctx context.Context, kv KeyValue, key string, c Credentials) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	return nil
}

// InitialState is the store state for the given credentials.
func InitialState(c *Credentials) State {
	if c == nil {
		return State{Status: domain.SessionLoggedOut}
	}

	return State{Status: domain.SessionLoggedIn, Subject: c.Subject}
}
