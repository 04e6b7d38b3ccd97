package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/harborline/stockgate/internal/domain"
)

const accessTokenHeader = "X-Shopify-Access-Token" //nolint:gosec // header name, not a credential

// graphqlError is one entry of the envelope's `errors` field.
type graphqlError struct {
	Message string `json:"message"`
}

// envelope is the raw upstream response wrapper. It is decoded fresh on
// every call and discarded after extraction.
type envelope struct {
	Data   *domain.InventoryQueryData `json:"data"`
	Errors []graphqlError             `json:"errors"`
}

// Client is a tenant-scoped Admin API client. It is constructed per request
// from a validated Session and never shared across requests.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// NewClient builds a Client scoped to the session's shop and access token.
// httpClient may be nil, in which case http.DefaultClient is used.
func NewClient(httpClient *http.Client, sess *domain.Session, apiVersion string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   fmt.Sprintf("https://%s/admin/api/%s/graphql.json", sess.Shop, apiVersion),
		token:      sess.AccessToken,
	}
}

// Inventory executes the fixed inventory query and returns the envelope's
// `data` field unreshaped. Exactly one network call is made; there are no
// retries. Failures map onto the domain's upstream error taxonomy.
func (c *Client) Inventory(ctx context.Context) (*domain.InventoryQueryData, error) {
	reqBody, err := json.Marshal(map[string]string{"query": inventoryQuery})
	if err != nil {
		return nil, fmt.Errorf("upstream.Client.Inventory: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("upstream.Client.Inventory: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accessTokenHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream.Client.Inventory: %w: %w", domain.ErrUpstreamTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream.Client.Inventory: %w: status %d", domain.ErrUpstreamTransport, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("upstream.Client.Inventory: %w: %w", domain.ErrMalformedResponse, err)
	}

	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("upstream.Client.Inventory: %w: %s", domain.ErrUpstreamData, strings.Join(msgs, "; "))
	}

	if env.Data == nil {
		return nil, fmt.Errorf("upstream.Client.Inventory: %w: data absent", domain.ErrUpstreamData)
	}

	return env.Data, nil
}

// Executor builds a per-request Client and runs the inventory query. It is
// the production implementation of the handler's InventoryExecutor
// dependency.
type Executor struct {
	httpClient *http.Client
	apiVersion string
}

// NewExecutor creates an Executor. httpClient may be nil.
func NewExecutor(httpClient *http.Client, apiVersion string) *Executor {
	return &Executor{httpClient: httpClient, apiVersion: apiVersion}
}

// FetchInventory runs the fixed query on behalf of the given session.
func (e *Executor) FetchInventory(ctx context.Context, sess *domain.Session) (*domain.InventoryQueryData, error) {
	return NewClient(e.httpClient, sess, e.apiVersion).Inventory(ctx)
}
