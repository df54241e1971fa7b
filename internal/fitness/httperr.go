package fitness

import (
	"errors"
	"net/http"

	"github.com/2beens/fittracker/pkg"

	log "github.com/sirupsen/logrus"
)

// WriteStoreError maps a store error to the HTTP response. Not-configured
// and storage-level failures are explicit 500s with a JSON error body -
// never a silent empty list (the caller must be able to tell "no storage"
// from "zero rows").
func WriteStoreError(w http.ResponseWriter, err error, op string) {
	switch {
	case IsValidationError(err):
		log.Tracef("%s: %s", op, err)
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotConfigured):
		log.Warnf("%s: storage not configured", op)
		pkg.WriteJSONError(w, "storage not configured", http.StatusInternalServerError)
	case errors.Is(err, ErrStorageTimeout):
		log.Errorf("%s: %s", op, err)
		pkg.WriteJSONError(w, "storage timeout", http.StatusInternalServerError)
	case errors.Is(err, ErrStorageUnavailable):
		log.Errorf("%s: %s", op, err)
		pkg.WriteJSONError(w, "storage unavailable", http.StatusInternalServerError)
	default:
		log.Errorf("%s: %s", op, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
