package errors

import "net/http"

var (
	ErrRouteNotFound = New(
		"ROUTE_NOT_FOUND",
		"Route not found",
		http.StatusNotFound,
	)

	ErrInvalidRoute = New(
		"INVALID_ROUTE",
		"Route must contain at least 2 waypoints",
		http.StatusBadRequest,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidTransportMode = New(
		"INVALID_TRANSPORT_MODE",
		"Invalid transport mode",
		http.StatusBadRequest,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Animation session not found",
		http.StatusNotFound,
	)

	ErrTooManySessions = New(
		"TOO_MANY_SESSIONS",
		"Too many active animation sessions",
		http.StatusTooManyRequests,
	)

	ErrDirectionsUnavailable = New(
		"DIRECTIONS_UNAVAILABLE",
		"Directions service unavailable",
		http.StatusBadGateway,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
