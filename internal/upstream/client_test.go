package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/stockgate/internal/domain"
)

const successEnvelope = `{
  "data": {
    "inventoryItems": {
      "edges": [
        {
          "node": {
            "id": "gid://shopify/InventoryItem/1",
            "sku": "SKU-1",
            "tracked": true,
            "inventoryLevels": {
              "edges": [
                {"node": {"quantities": [{"name": "available", "quantity": 7}]}}
              ]
            }
          }
        },
        {
          "node": {
            "id": "gid://shopify/InventoryItem/2",
            "sku": "",
            "tracked": false,
            "inventoryLevels": {"edges": []}
          }
        }
      ]
    }
  }
}`

// newTestClient points a Client at a stub upstream and counts its calls.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int) {
	t.Helper()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return &Client{
		httpClient: srv.Client(),
		endpoint:   srv.URL,
		token:      "offline-token",
	}, &calls
}

func TestInventory(t *testing.T) {
	t.Parallel()

	t.Run("passes data through unreshaped", func(t *testing.T) {
		t.Parallel()

		c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "offline-token", r.Header.Get(accessTokenHeader))

			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var req map[string]string
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Contains(t, req["query"], "inventoryItems(first: 10)")
			assert.Contains(t, req["query"], "inventoryLevels(first: 5)")
			assert.Contains(t, req["query"], `quantities(names: ["available"])`)

			_, _ = w.Write([]byte(successEnvelope))
		})

		data, err := c.Inventory(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, *calls, "exactly one network call per trigger")

		require.Len(t, data.InventoryItems.Edges, 2)
		first := data.InventoryItems.Edges[0].Node
		assert.Equal(t, "gid://shopify/InventoryItem/1", first.ID)
		assert.Equal(t, "SKU-1", first.SKU)
		assert.True(t, first.Tracked)
		require.Len(t, first.InventoryLevels.Edges, 1)
		assert.Equal(t, domain.Quantity{Name: "available", Quantity: 7},
			first.InventoryLevels.Edges[0].Node.Quantities[0])

		// Empty SKU and zero levels pass through untouched.
		second := data.InventoryItems.Edges[1].Node
		assert.Empty(t, second.SKU)
		assert.Empty(t, second.InventoryLevels.Edges)
	})

	t.Run("empty edge list is a success", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data": {"inventoryItems": {"edges": []}}}`))
		})

		data, err := c.Inventory(context.Background())
		require.NoError(t, err)
		assert.Empty(t, data.InventoryItems.Edges)
	})

	t.Run("non-200 status is a transport failure", func(t *testing.T) {
		t.Parallel()

		c, calls := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := c.Inventory(context.Background())
		assert.ErrorIs(t, err, domain.ErrUpstreamTransport)
		assert.Equal(t, 1, *calls, "no retries on failure")
	})

	t.Run("populated errors field is a data failure", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data": null, "errors": [{"message": "throttled"}]}`))
		})

		_, err := c.Inventory(context.Background())
		assert.ErrorIs(t, err, domain.ErrUpstreamData)
		assert.Contains(t, err.Error(), "throttled")
	})

	t.Run("absent data on 200 is a data failure", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})

		_, err := c.Inventory(context.Background())
		assert.ErrorIs(t, err, domain.ErrUpstreamData)
	})

	t.Run("undecodable body is malformed", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>gateway timeout</html>`))
		})

		_, err := c.Inventory(context.Background())
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})
}

func TestNewClientEndpoint(t *testing.T) {
	t.Parallel()

	sess := &domain.Session{Shop: "dev-shop.myshopify.com", AccessToken: "tok"}
	c := NewClient(nil, sess, "2025-01")

	assert.Equal(t, "https://dev-shop.myshopify.com/admin/api/2025-01/graphql.json", c.endpoint)
	assert.Equal(t, "tok", c.token)
	assert.NotNil(t, c.httpClient)
}
