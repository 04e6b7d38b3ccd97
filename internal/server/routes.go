package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/harborline/stockgate/internal/api/v1"
	"github.com/harborline/stockgate/internal/auth"
)

func registerAuthRoutes(r chi.Router, oauthSvc *auth.OAuth) {
	r.Get("/auth", oauthSvc.Begin)
	r.Get("/auth/callback", oauthSvc.Callback)
}

func registerAppRoutes(api huma.API, exec v1.InventoryExecutor) {
	v1.RegisterInventoryRoutes(api, exec)
}
