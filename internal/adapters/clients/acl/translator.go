package acl

import (
	"github.com/jsamuelsen/go-api-client/internal/adapters/clients"
	"github.com/jsamuelsen/go-api-client/internal/domain"
)

// DecodeResponse decodes a JSON response body into the target type.
// A body that cannot be decoded yields a WRONG classified error carrying the
// decoder's message, so callers handle it like any other failure.
func DecodeResponse[T any](resp *clients.Response) (*T, error) {
	var result T
	if err := resp.Decode(&result); err != nil {
		return nil, domain.NewGenericError(err.Error(), err)
	}

	return &result, nil
}
