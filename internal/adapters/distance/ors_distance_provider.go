package distance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/platform/obs"
	"strings"
	"time"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

// ORSDistanceProvider implements RouteDistanceProvider using the
// OpenRouteService matrix API.
//
// Transient failures (network errors, 429 and 5xx) are retried with
// exponential backoff while ctx allows. The provider is safe for concurrent use.
type ORSDistanceProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
}

type ORSOption func(*ORSDistanceProvider)

func WithBaseURL(u string) ORSOption {
	return func(o *ORSDistanceProvider) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) ORSOption {
	return func(o *ORSDistanceProvider) { o.session = c }
}

func NewORSDistanceProvider(apiKey string, profile string, opts ...ORSOption) (*ORSDistanceProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if strings.TrimSpace(profile) == "" {
		profile = "driving-hgv"
	}

	provider := &ORSDistanceProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: defaultORSBaseURL,
		profile: profile,
	}
	for _, opt := range opts {
		opt(provider)
	}

	return provider, nil
}

func (o *ORSDistanceProvider) RemainingDistanceKm(
	ctx context.Context,
	from domain.GeoPoint,
	to domain.GeoPoint,
) (_ float64, err error) {
	defer obs.Time(ctx, "ors.RemainingDistanceKm")(&err)

	if err := from.Validate(); err != nil {
		return 0, fmt.Errorf("ORS distance: from: %w", err)
	}
	if err := to.Validate(); err != nil {
		return 0, fmt.Errorf("ORS distance: to: %w", err)
	}
	if from == to {
		return 0, nil
	}

	meters, err := o.fetchMatrixRow(ctx, from, []domain.GeoPoint{to})
	if err != nil {
		return 0, fmt.Errorf("ORS distance %s -> %s: %w", from, to, err)
	}

	return meters[0] / 1000, nil
}
