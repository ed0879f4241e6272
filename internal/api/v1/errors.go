package v1

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Request bodies that fail schema validation are a client error and use the
// same 400 status as handler-level validation failures. huma's default for
// schema violations is 422.
func init() {
	newError := huma.NewError
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		return newError(status, msg, errs...)
	}
}
