package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type stubClient struct {
	calls    int
	complete func(Request) (Reply, error)
}

func (s *stubClient) Complete(_ context.Context, req Request) (Reply, error) {
	s.calls++
	return s.complete(req)
}

func newStubPair(primary, alternate *stubClient) *FailoverClient {
	clients := map[string]Client{
		"https://primary/v1":   primary,
		"https://alternate/v1": alternate,
	}
	return NewFailoverClient("https://primary/v1", "https://alternate/v1", func(baseURL string) Client {
		return clients[baseURL]
	})
}

func TestFailoverSwitchesOnTransportErrorAndSticks(t *testing.T) {
	primary := &stubClient{complete: func(Request) (Reply, error) {
		return Reply{}, &TransportError{Endpoint: "https://primary/v1", Err: errors.New("connection refused")}
	}}
	alternate := &stubClient{complete: func(Request) (Reply, error) {
		return Reply{Role: RoleAssistant, Content: "你好"}, nil
	}}
	c := newStubPair(primary, alternate)

	var switchedTo string
	c.OnEndpointSwitch = func(baseURL string) { switchedTo = baseURL }

	reply, err := c.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Complete() unexpected error = %v", err)
	}
	if reply.Content != "你好" {
		t.Fatalf("Complete() content = %q, want 你好", reply.Content)
	}
	if switchedTo != "https://alternate/v1" {
		t.Fatalf("switch observer got %q, want alternate endpoint", switchedTo)
	}
	if got := c.ActiveBaseURL(); got != "https://alternate/v1" {
		t.Fatalf("ActiveBaseURL() = %q, want alternate endpoint", got)
	}

	// The switch is sticky: the next call must not retry the bad primary.
	if _, err := c.Complete(context.Background(), Request{}); err != nil {
		t.Fatalf("Complete() after switch unexpected error = %v", err)
	}
	if primary.calls != 1 {
		t.Fatalf("primary calls = %d, want 1", primary.calls)
	}
	if alternate.calls != 2 {
		t.Fatalf("alternate calls = %d, want 2", alternate.calls)
	}
}

func TestFailoverRetriesExactlyOnce(t *testing.T) {
	transportErr := &TransportError{Endpoint: "x", Err: errors.New("timeout")}
	primary := &stubClient{complete: func(Request) (Reply, error) { return Reply{}, transportErr }}
	alternate := &stubClient{complete: func(Request) (Reply, error) { return Reply{}, transportErr }}
	c := newStubPair(primary, alternate)

	_, err := c.Complete(context.Background(), Request{})
	if !IsTransport(err) {
		t.Fatalf("Complete() error = %v, want transport error", err)
	}
	if primary.calls != 1 || alternate.calls != 1 {
		t.Fatalf("calls = (%d, %d), want exactly one attempt per endpoint", primary.calls, alternate.calls)
	}
	// Still sticky on the last attempted endpoint.
	if got := c.ActiveBaseURL(); got != "https://alternate/v1" {
		t.Fatalf("ActiveBaseURL() = %q, want alternate endpoint", got)
	}
}

func TestFailoverDoesNotSwitchOnAPIError(t *testing.T) {
	apiErr := &openai.APIError{HTTPStatusCode: 401, Message: "invalid api key"}
	primary := &stubClient{complete: func(Request) (Reply, error) { return Reply{}, apiErr }}
	alternate := &stubClient{complete: func(Request) (Reply, error) { return Reply{Content: "unexpected"}, nil }}
	c := newStubPair(primary, alternate)

	_, err := c.Complete(context.Background(), Request{})
	var gotAPI *openai.APIError
	if !errors.As(err, &gotAPI) {
		t.Fatalf("Complete() error = %v, want the APIError unchanged", err)
	}
	if alternate.calls != 0 {
		t.Fatalf("alternate calls = %d, want 0 (no failover on API errors)", alternate.calls)
	}
	if got := c.ActiveBaseURL(); got != "https://primary/v1" {
		t.Fatalf("ActiveBaseURL() = %q, want primary endpoint", got)
	}
}

func TestClassifyErr(t *testing.T) {
	if err := classifyErr("https://primary/v1", nil); err != nil {
		t.Fatalf("classifyErr(nil) = %v, want nil", err)
	}

	plain := errors.New("dial tcp: connection refused")
	classified := classifyErr("https://primary/v1", plain)
	if !IsTransport(classified) {
		t.Fatalf("connectivity error not classified as transport: %v", classified)
	}
	if !errors.Is(classified, plain) {
		t.Fatal("transport wrapper lost the underlying error")
	}

	apiErr := &openai.APIError{HTTPStatusCode: 429}
	if got := classifyErr("https://primary/v1", apiErr); IsTransport(got) {
		t.Fatalf("API error misclassified as transport: %v", got)
	}
	reqErr := &openai.RequestError{HTTPStatusCode: 400, Err: errors.New("bad request")}
	if got := classifyErr("https://primary/v1", reqErr); IsTransport(got) {
		t.Fatalf("request error misclassified as transport: %v", got)
	}
}
