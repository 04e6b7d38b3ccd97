package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/harborline/stockgate/internal/domain"
)

// ErrReauthorize is returned when the gateway rejects the session token and
// the merchant has to run through the install flow again.
var ErrReauthorize = errors.New("client: gateway requires re-authorization")

// HTTPSubmitter triggers the gateway's action path over HTTP.
type HTTPSubmitter struct {
	httpClient   *http.Client
	baseURL      string
	sessionToken string
}

// NewHTTPSubmitter creates a submitter for the gateway at baseURL.
// httpClient may be nil, in which case http.DefaultClient is used.
func NewHTTPSubmitter(httpClient *http.Client, baseURL, sessionToken string) *HTTPSubmitter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPSubmitter{
		httpClient:   httpClient,
		baseURL:      baseURL,
		sessionToken: sessionToken,
	}
}

// Submit performs one POST to the action path and decodes the Action
// Result. Auth failures surface as ErrReauthorize; they are a platform
// boundary concern, not a failure envelope.
func (s *HTTPSubmitter) Submit(ctx context.Context) (*domain.ActionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/app/inventory", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("client.HTTPSubmitter.Submit: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.sessionToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client.HTTPSubmitter.Submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if reauth := resp.Header.Get("X-Reauthorize-Url"); reauth != "" {
			return nil, fmt.Errorf("%w: %s", ErrReauthorize, reauth)
		}
		return nil, ErrReauthorize
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client.HTTPSubmitter.Submit: gateway status %d", resp.StatusCode)
	}

	var res domain.ActionResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("client.HTTPSubmitter.Submit: decode: %w", err)
	}

	return &res, nil
}
