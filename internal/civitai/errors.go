package civitai

import "errors"

var (
	// ErrUserNotFound maps the API's {"error": "User not found"} body.
	// It is terminal for a creator and must never be retried.
	ErrUserNotFound = errors.New("civitai: user not found")
)
