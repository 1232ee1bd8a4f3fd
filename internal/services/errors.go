package services

import "errors"

// Grouped by the HTTP class they surface as; see handlers.statusFor.
var (
	// 401
	ErrUnauthenticated = errors.New("authentication required")

	// 403
	ErrForbidden          = errors.New("not allowed to modify this resource")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// 400
	ErrMissingFields = errors.New("missing required fields")
	ErrMissingPostID = errors.New("cannot comment without a post")
	ErrEmptyPatch    = errors.New("nothing to update")

	// 404
	ErrUserNotFound    = errors.New("user not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")

	// 409
	ErrEmailTaken = errors.New("email already taken")

	// 501
	ErrNotImplemented = errors.New("user update is not supported yet")
)
