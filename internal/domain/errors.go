package domain

import "errors"

var (
	ErrInvalidCoordinate   = errors.New("invalid coordinate")
	ErrInvalidSpeed        = errors.New("invalid speed")
	ErrInvalidRoute        = errors.New("invalid route")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidSample       = errors.New("invalid location sample")
	ErrInvalidShipment     = errors.New("invalid shipment")
	ErrStaleUpdate         = errors.New("stale location update")
	ErrShipmentClosed      = errors.New("shipment closed")
	ErrProviderUnavailable = errors.New("route distance provider unavailable")
	ErrShipmentNotFound    = errors.New("shipment not found")
	ErrShipmentExists      = errors.New("shipment already exists")

	// Returned when a write was based on a lastUpdateSeq that is no longer current.
	ErrConflict = errors.New("concurrent update conflict")
)
