package domain

import "errors"

// Ошибки, которые возвращают use cases. Хендлеры сопоставляют их со статусами через errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidMaxPrice   = errors.New("max price must be a non-negative number")
	ErrInvalidImage      = errors.New("invalid image")
	ErrApartmentNotFound = errors.New("apartment not found")
	ErrRoomNotFound      = errors.New("room not found")

	ErrSessionNotFound  = errors.New("browse session not found")
	ErrSessionNotLoaded = errors.New("listings are not loaded yet")
	ErrSessionClosed    = errors.New("browse session is closed")
	ErrFetchListings    = errors.New("failed to fetch listings")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenInvalid       = errors.New("invalid jwt token")
	ErrUpstream           = errors.New("upstream service error")
)
