package llm

import (
	"context"
	"sync/atomic"
)

// FailoverClient fronts a primary and an alternate chat endpoint. A
// transport-class failure switches the active endpoint and retries the same
// request exactly once; the retry's error propagates unchanged. The switch
// is sticky: later calls start from the last attempted endpoint rather than
// re-probing a known-bad one. Non-transport failures never switch.
type FailoverClient struct {
	endpoints [2]endpoint
	active    atomic.Int32

	// OnEndpointSwitch, when set, is invoked with the newly active base URL
	// after every failover.
	OnEndpointSwitch func(baseURL string)
}

type endpoint struct {
	baseURL string
	client  Client
}

var _ Client = (*FailoverClient)(nil)

// NewFailoverClient pairs a primary endpoint with its alternate. The dial
// function builds the concrete client for one base URL.
func NewFailoverClient(primaryURL, alternateURL string, dial func(baseURL string) Client) *FailoverClient {
	return &FailoverClient{
		endpoints: [2]endpoint{
			{baseURL: primaryURL, client: dial(primaryURL)},
			{baseURL: alternateURL, client: dial(alternateURL)},
		},
	}
}

// ActiveBaseURL returns the endpoint the next call will start from.
func (c *FailoverClient) ActiveBaseURL() string {
	return c.endpoints[c.active.Load()].baseURL
}

// Complete performs one chat-completion call with at most one failover.
func (c *FailoverClient) Complete(ctx context.Context, req Request) (Reply, error) {
	idx := c.active.Load()
	reply, err := c.endpoints[idx].client.Complete(ctx, req)
	if err == nil {
		return reply, nil
	}
	if !IsTransport(err) {
		return Reply{}, err
	}

	other := 1 - idx
	// Sticky even when the retry fails: the original endpoint is known bad.
	c.active.Store(other)
	if c.OnEndpointSwitch != nil {
		c.OnEndpointSwitch(c.endpoints[other].baseURL)
	}
	return c.endpoints[other].client.Complete(ctx, req)
}
