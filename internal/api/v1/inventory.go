package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/harborline/stockgate/internal/domain"
	"github.com/harborline/stockgate/internal/server/middleware"
)

// fetchFailedMessage is the stable failure envelope body. The upstream
// failure kinds are distinguished in logs only; the client sees one message.
const fetchFailedMessage = "inventory fetch failed"

type FetchInventoryOutput struct {
	Body domain.ActionResult
}

// RegisterInventoryRoutes wires the app's loader and action paths. Both sit
// behind the auth gate; handlers still refuse to run without a session in
// context rather than trusting the middleware ordering.
func RegisterInventoryRoutes(api huma.API, exec InventoryExecutor) {
	huma.Register(api, huma.Operation{
		OperationID:   "inventory-page",
		Method:        http.MethodGet,
		Path:          "/app/inventory",
		Summary:       "Inventory page load",
		Description:   "Authenticated page-load path. Renders nothing server-side; returns no body.",
		Tags:          []string{"Inventory"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		if _, ok := middleware.SessionFromContext(ctx); !ok {
			return nil, huma.Error401Unauthorized("missing session context")
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "fetch-inventory",
		Method:      http.MethodPost,
		Path:        "/app/inventory",
		Summary:     "Fetch inventory from the upstream Admin API",
		Description: "Runs the fixed inventory query once and returns the decoded payload, or a failure envelope.",
		Tags:        []string{"Inventory"},
	}, func(ctx context.Context, _ *struct{}) (*FetchInventoryOutput, error) {
		sess, ok := middleware.SessionFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing session context")
		}

		data, err := exec.FetchInventory(ctx, sess)
		if err != nil {
			logUpstreamFailure(sess.Shop, err)
			// Upstream failures never escape as faults; the client always
			// receives a well-formed Action Result.
			return &FetchInventoryOutput{Body: domain.ActionResult{Error: fetchFailedMessage}}, nil
		}

		return &FetchInventoryOutput{Body: domain.ActionResult{Inventory: data}}, nil
	})
}

func logUpstreamFailure(shop string, err error) {
	evt := log.Error().Err(err).Str("shop", shop)
	switch {
	case errors.Is(err, domain.ErrUpstreamData):
		evt.Msg("inventory: upstream data failure")
	case errors.Is(err, domain.ErrMalformedResponse):
		evt.Msg("inventory: malformed upstream response")
	default:
		evt.Msg("inventory: upstream transport failure")
	}
}
