package handler

import (
	"net/http"

	"github.com/mcoot/tworoomsboom/internal/api/apierr"
)

// WriteError maps err to its status and code and writes the envelope
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

func NewForbiddenError(message string) error {
	return apierr.NewForbiddenError(message)
}
