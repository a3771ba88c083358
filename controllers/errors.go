package controllers

import (
	"errors"
	"net/http"

	"squadup_server/models"
)

// statusForError maps the service error taxonomy onto HTTP statuses.
// Business outcomes (conflicts, lost races, invalid states) are client-level
// responses; anything unclassified is a transient server failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyRequested),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrSlotUnavailable):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrAlreadyTerminal),
		errors.Is(err, models.ErrNotPending):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusForError(err))
}
