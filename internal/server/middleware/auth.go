package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harborline/stockgate/internal/auth"
	"github.com/harborline/stockgate/internal/domain"
)

// Auth is the gate in front of every app route. It verifies the inbound
// session token against the app secret, then requires an installed offline
// session for the token's shop. Both the page-load and the action path run
// through it independently; no validation outcome is cached.
//
// On failure, document navigations are redirected into the install flow and
// fetch-style requests get a 401 carrying the same URL in X-Reauthorize-Url.
// No request reaches a handler, and therefore the upstream API, without a
// validated session in context.
func Auth(apiKey, apiSecret string, sessions domain.SessionStore, authPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				// Document navigations carry the token as a query parameter.
				tok = r.URL.Query().Get("id_token")
			}
			if tok == "" {
				challenge(w, r, authPath, r.URL.Query().Get("shop"))
				return
			}

			shop, err := auth.VerifySessionToken(apiSecret, apiKey, tok)
			if err != nil {
				log.Debug().Err(err).Msg("auth: session token rejected")
				challenge(w, r, authPath, r.URL.Query().Get("shop"))
				return
			}

			sess, err := sessions.GetByShop(r.Context(), shop)
			if err != nil || sess.Expired(time.Now()) {
				log.Info().Str("shop", shop).Msg("auth: no installed session, challenging")
				challenge(w, r, authPath, shop)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}

// challenge terminates an unauthenticated request at the platform boundary.
// The failure is never passed to the client as data.
func challenge(w http.ResponseWriter, r *http.Request, authPath, shop string) {
	reauth := authPath
	if shop != "" && auth.ValidShop(shop) {
		reauth = authPath + "?shop=" + url.QueryEscape(shop)
	}

	// Browser navigations can follow a redirect into the install flow;
	// fetch-style callers need the URL out of band.
	if r.Method == http.MethodGet && r.Header.Get("Authorization") == "" {
		http.Redirect(w, r, reauth, http.StatusFound)
		return
	}

	w.Header().Set("X-Reauthorize-Url", reauth)
	http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid session token"}`, http.StatusUnauthorized)
}
