package acl

import (
	"github.com/jsamuelsen/go-api-client/internal/adapters/clients"
	"github.com/jsamuelsen/go-api-client/internal/domain"
	"github.com/jsamuelsen/go-api-client/internal/ports"
)

// Kind tags a Classification.
type Kind int

const (
	// KindCategorized carries a *domain.ClassifiedError.
	KindCategorized Kind = iota

	// KindSessionInvalid means the server rejected the session. No error
	// value is produced; the caller must invalidate the session.
	KindSessionInvalid

	// KindServerError carries a *ServerError wrapping the original response.
	KindServerError
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSessionInvalid:
		return "session_invalid"
	case KindServerError:
		return "server_error"
	default:
		return "categorized"
	}
}

// Classification is the outcome of classifying a failed exchange.
// Err is nil exactly when Kind is KindSessionInvalid.
type Classification struct {
	Kind Kind
	Err  error
}

// Classifier maps transport failures to the client error taxonomy.
// It has no side effects and is safe for concurrent use.
type Classifier struct {
	localizer ports.Localizer
}

// NewClassifier creates a classifier. A nil localizer resolves every message
// to its key.
func NewClassifier(localizer ports.Localizer) *Classifier {
	if localizer == nil {
		localizer = ports.LocalizerFunc(func(key string) string { return key })
	}

	return &Classifier{localizer: localizer}
}

// Classify maps f to exactly one classification. First match wins:
//
//  1. Responded with errorType ACCESS_TOKEN_EXPIRED or UNAUTHORIZED: session invalid
//  2. Responded: the response passed through as a *ServerError
//  3. NoNetwork: ERR_INTERNET_DISCONNECTED
//  4. NoResponse: BAD_REQUEST
//  5. anything else: WRONG, with the failure's message when it has one
func (c *Classifier) Classify(f *clients.Failure) Classification {
	if f == nil {
		return c.generic("", nil)
	}

	switch f.Kind {
	case clients.FailureResponded:
		errorType := ""
		if f.Response != nil {
			errorType = parseErrorType(f.Response.Body)
		}

		if domain.Category(errorType).InvalidatesSession() {
			return Classification{Kind: KindSessionInvalid}
		}

		return Classification{
			Kind: KindServerError,
			Err:  &ServerError{Response: f.Response, ErrorType: errorType},
		}

	case clients.FailureNoNetwork:
		return Classification{
			Kind: KindCategorized,
			Err:  domain.NewInternetDisconnectedError(c.localizer.Lookup(ports.KeyInternetDisconnected), f),
		}

	case clients.FailureNoResponse:
		return Classification{
			Kind: KindCategorized,
			Err:  domain.NewBadRequestError(c.localizer.Lookup(ports.KeyBadRequest), f),
		}

	default:
		return c.generic(f.Message, f)
	}
}

// ClassifyError classifies any error. Errors that are not a *clients.Failure
// are treated as malformed.
func (c *Classifier) ClassifyError(err error) Classification {
	if f, ok := clients.AsFailure(err); ok {
		return c.Classify(f)
	}

	if err == nil {
		return c.generic("", nil)
	}

	return c.generic(err.Error(), err)
}

func (c *Classifier) generic(message string, cause error) Classification {
	if message == "" {
		message = c.localizer.Lookup(ports.KeyWrong)
	}

	return Classification{
		Kind: KindCategorized,
		Err:  domain.NewGenericError(message, cause),
	}
}
