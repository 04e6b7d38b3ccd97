package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a session or state token cannot be
// verified or has expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// ErrInvalidShop is returned when a shop domain does not match the
// platform's shop domain shape.
var ErrInvalidShop = errors.New("auth: invalid shop domain")

// shopDomainRe matches the platform's shop domain shape. Anything else is
// rejected before it can influence a redirect or an upstream endpoint.
var shopDomainRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*\.myshopify\.com$`)

// SessionClaims is the payload of the embedded-app session token the admin
// surface sends with every request. `dest` carries the shop origin.
type SessionClaims struct {
	jwt.RegisteredClaims
	Dest string `json:"dest"`
}

type stateClaims struct {
	jwt.RegisteredClaims
	Shop string `json:"shop"`
}

// ValidShop reports whether shop has the platform's shop domain shape.
func ValidShop(shop string) bool {
	return shopDomainRe.MatchString(shop)
}

// VerifySessionToken checks an inbound session token against the app secret
// and audience and returns the shop domain it is scoped to.
func VerifySessionToken(apiSecret, apiKey, tokenStr string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return []byte(apiSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience(apiKey))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	shop := strings.TrimPrefix(claims.Dest, "https://")
	if !ValidShop(shop) {
		return "", ErrInvalidShop
	}

	return shop, nil
}

// IssueSessionToken creates a signed session token for the given shop. Used
// by the CLI client in development and by tests; production tokens are
// minted by the platform's admin surface.
func IssueSessionToken(apiSecret, apiKey, shop string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + shop + "/admin",
			Audience:  jwt.ClaimStrings{apiKey},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Dest: "https://" + shop,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(apiSecret))
	if err != nil {
		return "", fmt.Errorf("auth.IssueSessionToken: %w", err)
	}

	return signed, nil
}

// IssueStateToken creates the short-lived state parameter for the OAuth
// install flow, binding the flow to one shop.
func IssueStateToken(apiSecret, shop string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Shop: shop,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(apiSecret))
	if err != nil {
		return "", fmt.Errorf("auth.IssueStateToken: %w", err)
	}

	return signed, nil
}

// VerifyStateToken checks an OAuth callback state and returns the shop the
// flow was started for.
func VerifyStateToken(apiSecret, tokenStr string) (string, error) {
	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return []byte(apiSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	if !ValidShop(claims.Shop) {
		return "", ErrInvalidShop
	}

	return claims.Shop, nil
}
