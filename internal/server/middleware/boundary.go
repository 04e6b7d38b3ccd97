package middleware

import (
	"net/http"

	"github.com/harborline/stockgate/internal/auth"
)

// Boundary sets the embedded-app compliance headers the hosting platform
// requires on every response, success and error paths alike. The
// frame-ancestors directive is scoped to the requesting shop when the shop
// query parameter is present and well formed.
func Boundary() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			csp := "frame-ancestors https://admin.shopify.com;"
			if shop := r.URL.Query().Get("shop"); auth.ValidShop(shop) {
				csp = "frame-ancestors https://" + shop + " https://admin.shopify.com;"
			}
			w.Header().Set("Content-Security-Policy", csp)

			next.ServeHTTP(w, r)
		})
	}
}
