package dto

import (
	"shipment-tracking-service/internal/domain"
	"shipment-tracking-service/internal/services"
	"time"
)

type Coordinates struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

func (c Coordinates) Point() domain.GeoPoint {
	return domain.GeoPoint{Lat: *c.Lat, Lng: *c.Lng}
}

type WaypointRequest struct {
	Name        string      `json:"name" validate:"required"`
	Coordinates Coordinates `json:"coordinates"`
}

type CreateShipmentRequest struct {
	ShipmentID  string            `json:"shipmentId"`
	ContainerID string            `json:"containerId" validate:"required"`
	Cargo       string            `json:"cargo"`
	WeightKg    float64           `json:"weightKg" validate:"gte=0"`
	Route       []WaypointRequest `json:"route" validate:"required,min=2,dive"`
}

func (r CreateShipmentRequest) ToService() services.CreateShipmentRequest {
	route := make(domain.Route, 0, len(r.Route))
	for _, wp := range r.Route {
		route = append(route, domain.Waypoint{Name: wp.Name, Point: wp.Coordinates.Point()})
	}
	return services.CreateShipmentRequest{
		ShipmentID:  r.ShipmentID,
		ContainerID: r.ContainerID,
		Cargo:       r.Cargo,
		WeightKg:    r.WeightKg,
		Route:       route,
	}
}

// UpdateDetailsRequest carries the editable shipment fields; absent fields are
// left unchanged.
type UpdateDetailsRequest struct {
	Cargo    *string  `json:"cargo" validate:"omitempty,min=1"`
	WeightKg *float64 `json:"weightKg" validate:"omitempty,gte=0"`
}

type LocationRequest struct {
	Lat       *float64   `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng       *float64   `json:"lng" validate:"required,gte=-180,lte=180"`
	Timestamp *time.Time `json:"timestamp" validate:"required"`
	Speed     *float64   `json:"speed" validate:"omitempty,gte=0"`
	Heading   *float64   `json:"heading" validate:"omitempty,gte=0,lt=360"`
	Source    string     `json:"source"`
}

func (r LocationRequest) Sample() domain.LocationSample {
	return domain.LocationSample{
		Point:      domain.GeoPoint{Lat: *r.Lat, Lng: *r.Lng},
		Timestamp:  r.Timestamp.UTC(),
		SpeedKmh:   r.Speed,
		HeadingDeg: r.Heading,
		Source:     r.Source,
	}
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type PointResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type WaypointResponse struct {
	Name             string        `json:"name"`
	Coordinates      PointResponse `json:"coordinates"`
	Status           string        `json:"status"`
	EstimatedArrival *time.Time    `json:"estimatedArrival,omitempty"`
}

type LocationResponse struct {
	Coordinates PointResponse `json:"coordinates"`
	Timestamp   time.Time     `json:"timestamp"`
	Speed       *float64      `json:"speed,omitempty"`
	Heading     *float64      `json:"heading,omitempty"`
	Source      string        `json:"source,omitempty"`
}

type ShipmentResponse struct {
	ShipmentID      string             `json:"shipmentId"`
	ContainerID     string             `json:"containerId"`
	Cargo           string             `json:"cargo"`
	WeightKg        float64            `json:"weightKg"`
	Route           []WaypointResponse `json:"route"`
	CurrentLocation LocationResponse   `json:"currentLocation"`
	CurrentETA      time.Time          `json:"currentEta"`
	Status          string             `json:"status"`
	StatusSource    string             `json:"statusSource"`
	LocationHistory []LocationResponse `json:"locationHistory"`
	LastUpdateSeq   uint64             `json:"lastUpdateSeq"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type ListShipmentResponse struct {
	Shipments []ShipmentResponse `json:"shipments"`
	Count     int                `json:"count"`
}

type AlertResponse struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type LocationUpdateResponse struct {
	Shipment            ShipmentResponse `json:"shipment"`
	Alerts              []AlertResponse  `json:"alerts"`
	DistanceRemainingKm float64          `json:"distanceRemainingKm"`
}

type ETAResponse struct {
	ShipmentID      string           `json:"shipmentId"`
	CurrentETA      time.Time        `json:"currentEta"`
	CurrentLocation LocationResponse `json:"currentLocation"`
	Origin          string           `json:"origin"`
	Destination     string           `json:"destination"`
	Status          string           `json:"status"`
}

func FromShipment(s *domain.Shipment) ShipmentResponse {
	route := make([]WaypointResponse, 0, len(s.Route))
	for _, wp := range s.Route {
		route = append(route, WaypointResponse{
			Name:             wp.Name,
			Coordinates:      fromPoint(wp.Point),
			Status:           string(wp.LegStatus),
			EstimatedArrival: wp.EstimatedArrival,
		})
	}
	history := make([]LocationResponse, 0, len(s.LocationHistory))
	for _, h := range s.LocationHistory {
		history = append(history, fromSample(h))
	}

	return ShipmentResponse{
		ShipmentID:      s.ID,
		ContainerID:     s.ContainerID,
		Cargo:           s.Cargo,
		WeightKg:        s.WeightKg,
		Route:           route,
		CurrentLocation: fromSample(s.CurrentLocation),
		CurrentETA:      s.CurrentETA,
		Status:          string(s.Status),
		StatusSource:    string(s.StatusSource),
		LocationHistory: history,
		LastUpdateSeq:   s.LastUpdateSeq,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func FromLocationUpdate(u *services.LocationUpdate) LocationUpdateResponse {
	alerts := make([]AlertResponse, 0, len(u.Alerts))
	for _, a := range u.Alerts {
		alerts = append(alerts, AlertResponse{
			Type:     string(a.Kind),
			Message:  a.Message,
			Severity: string(a.Severity),
		})
	}
	return LocationUpdateResponse{
		Shipment:            FromShipment(u.Shipment),
		Alerts:              alerts,
		DistanceRemainingKm: u.Estimate.DistanceKm,
	}
}

func FromETAView(v services.ETAView) ETAResponse {
	return ETAResponse{
		ShipmentID:      v.ShipmentID,
		CurrentETA:      v.CurrentETA,
		CurrentLocation: fromSample(v.CurrentLocation),
		Origin:          v.Origin,
		Destination:     v.Destination,
		Status:          string(v.Status),
	}
}

func fromPoint(p domain.GeoPoint) PointResponse {
	return PointResponse{Lat: p.Lat, Lng: p.Lng}
}

func fromSample(s domain.LocationSample) LocationResponse {
	return LocationResponse{
		Coordinates: fromPoint(s.Point),
		Timestamp:   s.Timestamp,
		Speed:       s.SpeedKmh,
		Heading:     s.HeadingDeg,
		Source:      s.Source,
	}
}
