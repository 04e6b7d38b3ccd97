package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/stockgate/internal/auth"
	"github.com/harborline/stockgate/internal/domain"
	"github.com/harborline/stockgate/internal/server/middleware"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testAPIKey = "test-api-key"
	testShop   = "dev-shop.myshopify.com"
	authPath   = "/auth"
)

// mockSessionStore implements domain.SessionStore for gate tests.
type mockSessionStore struct {
	getByShopFunc func(ctx context.Context, shop string) (*domain.Session, error)
}

func (m *mockSessionStore) GetByShop(ctx context.Context, shop string) (*domain.Session, error) {
	return m.getByShopFunc(ctx, shop)
}

func (m *mockSessionStore) Put(_ context.Context, _ *domain.Session) error { panic("not implemented") }
func (m *mockSessionStore) Delete(_ context.Context, _ string) error       { panic("not implemented") }

func installedStore(t *testing.T) *mockSessionStore {
	t.Helper()
	return &mockSessionStore{
		getByShopFunc: func(_ context.Context, shop string) (*domain.Session, error) {
			return &domain.Session{ID: uuid.New(), Shop: shop, AccessToken: "offline-token"}, nil
		},
	}
}

func sessionToken(t *testing.T) string {
	t.Helper()
	tok, err := auth.IssueSessionToken(testSecret, testAPIKey, testShop, time.Minute)
	require.NoError(t, err)
	return tok
}

func TestAuth(t *testing.T) {
	t.Parallel()

	t.Run("valid token with installed session reaches handler", func(t *testing.T) {
		t.Parallel()

		var handlerCalled bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			sess, ok := middleware.SessionFromContext(r.Context())
			require.True(t, ok, "session must be in context")
			assert.Equal(t, testShop, sess.Shop)
			assert.Equal(t, "offline-token", sess.AccessToken)
		})

		handler := middleware.Auth(testAPIKey, testSecret, installedStore(t), authPath)(next)

		req := httptest.NewRequest(http.MethodPost, "/app/inventory", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("id_token query parameter works for document loads", func(t *testing.T) {
		t.Parallel()

		var handlerCalled bool
		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) { handlerCalled = true })
		handler := middleware.Auth(testAPIKey, testSecret, installedStore(t), authPath)(next)

		req := httptest.NewRequest(http.MethodGet, "/app/inventory?id_token="+sessionToken(t), nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.True(t, handlerCalled)
	})

	t.Run("missing credentials on fetch request gets 401 with reauth header", func(t *testing.T) {
		t.Parallel()

		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("handler must not run without a session")
		})
		handler := middleware.Auth(testAPIKey, testSecret, installedStore(t), authPath)(next)

		req := httptest.NewRequest(http.MethodPost, "/app/inventory", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, authPath, rec.Header().Get("X-Reauthorize-Url"))
	})

	t.Run("missing credentials on document load redirects to install flow", func(t *testing.T) {
		t.Parallel()

		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("handler must not run without a session")
		})
		handler := middleware.Auth(testAPIKey, testSecret, installedStore(t), authPath)(next)

		req := httptest.NewRequest(http.MethodGet, "/app/inventory?shop="+testShop, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/auth?shop="+testShop, rec.Header().Get("Location"))
	})

	t.Run("invalid token is challenged", func(t *testing.T) {
		t.Parallel()

		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("handler must not run with a bad token")
		})
		handler := middleware.Auth(testAPIKey, testSecret, installedStore(t), authPath)(next)

		req := httptest.NewRequest(http.MethodPost, "/app/inventory", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("verified token without installed session is challenged", func(t *testing.T) {
		t.Parallel()

		store := &mockSessionStore{
			getByShopFunc: func(_ context.Context, _ string) (*domain.Session, error) {
				return nil, domain.ErrSessionNotFound
			},
		}
		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("handler must not run without an installed session")
		})
		handler := middleware.Auth(testAPIKey, testSecret, store, authPath)(next)

		req := httptest.NewRequest(http.MethodPost, "/app/inventory", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "/auth?shop="+testShop, rec.Header().Get("X-Reauthorize-Url"))
	})

	t.Run("expired session is challenged", func(t *testing.T) {
		t.Parallel()

		expired := time.Now().Add(-time.Hour)
		store := &mockSessionStore{
			getByShopFunc: func(_ context.Context, shop string) (*domain.Session, error) {
				return &domain.Session{Shop: shop, AccessToken: "stale", ExpiresAt: &expired}, nil
			},
		}
		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Fatal("handler must not run with an expired session")
		})
		handler := middleware.Auth(testAPIKey, testSecret, store, authPath)(next)

		req := httptest.NewRequest(http.MethodPost, "/app/inventory", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestBoundary(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot) // headers must be set on error paths too
	})
	handler := middleware.Boundary()(next)

	t.Run("scoped to requesting shop", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/app/inventory?shop="+testShop, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t,
			"frame-ancestors https://"+testShop+" https://admin.shopify.com;",
			rec.Header().Get("Content-Security-Policy"),
		)
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("platform-only without a valid shop", func(t *testing.T) {
		t.Parallel()

		for _, target := range []string{"/app/inventory", "/app/inventory?shop=evil.example.com"} {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, "frame-ancestors https://admin.shopify.com;",
				rec.Header().Get("Content-Security-Policy"), "target %s", target)
		}
	})
}

func TestRateLimitByShop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RateLimitByShop(ctx, 1, 2)(next)

	sess := &domain.Session{Shop: testShop}
	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/app/inventory", nil)
		req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeySession, sess))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do(), "burst exhausted")

	t.Run("no session passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/app/inventory", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
