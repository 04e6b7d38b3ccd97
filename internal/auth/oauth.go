package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/harborline/stockgate/internal/domain"
)

// stateTTL bounds how long an install handshake may stay open.
const stateTTL = 10 * time.Minute

// OAuth drives the install handshake with merchant shops: Begin redirects
// the merchant to the shop's authorize page, Callback exchanges the grant
// code for an offline access token and persists it as a Session.
type OAuth struct {
	apiKey    string
	apiSecret string
	appURL    string
	scopes    []string
	sessions  domain.SessionStore

	// endpointBase builds the shop's OAuth origin; overridden in tests.
	endpointBase func(shop string) string
}

// NewOAuth creates the install-flow handler stack.
func NewOAuth(apiKey, apiSecret, appURL string, scopes []string, sessions domain.SessionStore) *OAuth {
	return &OAuth{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		appURL:    appURL,
		scopes:    scopes,
		sessions:  sessions,
		endpointBase: func(shop string) string {
			return "https://" + shop
		},
	}
}

// config compiles the oauth2.Config for one shop's authorize/token endpoints.
func (o *OAuth) config(shop string) *oauth2.Config {
	base := o.endpointBase(shop)
	return &oauth2.Config{
		ClientID:     o.apiKey,
		ClientSecret: o.apiSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/admin/oauth/authorize",
			TokenURL: base + "/admin/oauth/access_token",
		},
		Scopes:      o.scopes,
		RedirectURL: o.appURL + "/auth/callback",
	}
}

// Begin starts the install flow for the shop named in the query string.
func (o *OAuth) Begin(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if !ValidShop(shop) {
		http.Error(w, `{"title":"Bad Request","status":400,"detail":"missing or invalid shop parameter"}`, http.StatusBadRequest)
		return
	}

	state, err := IssueStateToken(o.apiSecret, shop, stateTTL)
	if err != nil {
		log.Error().Err(err).Str("shop", shop).Msg("oauth: issuing state token")
		http.Error(w, `{"title":"Internal Server Error","status":500}`, http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, o.config(shop).AuthCodeURL(state), http.StatusFound)
}

// Callback completes the install flow: verifies the state, exchanges the
// grant code and persists the offline session for the shop.
func (o *OAuth) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	shop, err := VerifyStateToken(o.apiSecret, q.Get("state"))
	if err != nil {
		http.Error(w, `{"title":"Bad Request","status":400,"detail":"invalid state"}`, http.StatusBadRequest)
		return
	}

	// The shop echoing back must be the one the state was issued for.
	if q.Get("shop") != shop {
		http.Error(w, `{"title":"Bad Request","status":400,"detail":"shop mismatch"}`, http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Error(w, `{"title":"Bad Request","status":400,"detail":"missing code"}`, http.StatusBadRequest)
		return
	}

	token, err := o.config(shop).Exchange(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("shop", shop).Msg("oauth: code exchange failed")
		http.Error(w, `{"title":"Bad Gateway","status":502,"detail":"token exchange failed"}`, http.StatusBadGateway)
		return
	}

	scope, _ := token.Extra("scope").(string)

	now := time.Now()
	sess := &domain.Session{
		ID:          uuid.New(),
		Shop:        shop,
		AccessToken: token.AccessToken,
		Scope:       scope,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := o.sessions.Put(r.Context(), sess); err != nil {
		log.Error().Err(err).Str("shop", shop).Msg("oauth: persisting session")
		http.Error(w, `{"title":"Internal Server Error","status":500}`, http.StatusInternalServerError)
		return
	}

	log.Info().Str("shop", shop).Msg("oauth: shop installed")

	http.Redirect(w, r, o.embeddedAppURL(shop), http.StatusFound)
}

// embeddedAppURL is where the merchant lands after installing: the app's
// home inside the platform admin.
func (o *OAuth) embeddedAppURL(shop string) string {
	handle := strings.TrimSuffix(shop, ".myshopify.com")
	return fmt.Sprintf("https://admin.shopify.com/store/%s/apps/%s", handle, o.apiKey)
}
