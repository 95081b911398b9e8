package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"shipment-tracking-service/internal/domain"
)

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
}

// fetchMatrixRow returns the distance in meters from origin to each destination,
// in destination order.
func (o *ORSDistanceProvider) fetchMatrixRow(
	ctx context.Context,
	origin domain.GeoPoint,
	destinations []domain.GeoPoint,
) ([]float64, error) {
	if len(destinations) == 0 {
		return nil, errors.New("fetch matrix row: no destinations")
	}

	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	locations := make([][]float64, 0, 1+len(destinations))
	locations = append(locations, origin.CoordsToList())
	destIdx := make([]int, 0, len(destinations))
	for i, d := range destinations {
		locations = append(locations, d.CoordsToList())
		destIdx = append(destIdx, i+1)
	}

	payload, err := json.Marshal(matrixRequest{
		Locations:    locations,
		Destinations: destIdx,
		Metrics:      []string{"distance"},
		Sources:      []int{0},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if len(mr.Distances) != 1 {
		return nil, fmt.Errorf("expected 1 source row; got %d", len(mr.Distances))
	}

	row := mr.Distances[0]
	if len(row) != len(destinations) {
		return nil, fmt.Errorf("row length %d does not match %d destinations", len(row), len(destinations))
	}

	out := make([]float64, len(row))
	for i, m := range row {
		// ORS returns null when no route connects the two points.
		if m == nil {
			return nil, fmt.Errorf("no navigable route to %s", destinations[i])
		}
		out[i] = *m
	}

	return out, nil
}
