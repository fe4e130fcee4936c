package llm

import (
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// TransportError marks a connectivity-level failure talking to a chat
// endpoint: connection refused, DNS, TLS, timeout. API-level failures
// (bad request, auth, rate limit) are never wrapped in it, so failover
// stays reserved for connectivity faults.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error talking to %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a transport-class failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// classifyErr wraps transport-class failures from the OpenAI-compatible
// client. The client surfaces API-level failures as APIError or RequestError;
// anything else came from the HTTP round trip itself.
func classifyErr(endpoint string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return err
	}
	return &TransportError{Endpoint: endpoint, Err: err}
}
