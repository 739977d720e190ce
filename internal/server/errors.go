package server

import (
	"errors"
	"net/http"

	"github.com/personaprd/personaprd/internal/artifact"
	"github.com/personaprd/personaprd/internal/persona"
	"github.com/personaprd/personaprd/internal/prd"
)

// HTTPStatus returns the appropriate HTTP status code for a domain error.
// Errors are matched through wrapping, so stage errors that carry one of
// these causes map the same way.
func HTTPStatus(err error) int {
	var (
		unknownPersona *persona.UnknownError
		notFound       *artifact.NotFoundError
		emptySelection *prd.EmptySelectionError
		corrupt        *artifact.CorruptError
	)
	switch {
	case errors.As(err, &unknownPersona):
		return http.StatusBadRequest
	case errors.As(err, &emptySelection):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &corrupt):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
