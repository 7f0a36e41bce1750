package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doeshing/formatapi/internal/domain"
)

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var (
		formatErr      *domain.FormatError
		ocrErr         *domain.OCRError
		persistenceErr *domain.PersistenceError
	)
	switch {
	case errors.As(err, &formatErr):
		return http.StatusBadRequest
	case errors.As(err, &ocrErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateTimestamp):
		return http.StatusConflict
	case errors.As(err, &persistenceErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var ocrErr *domain.OCRError
	if errors.As(err, &ocrErr) {
		body["kind"] = ocrErr.Kind
	}
	c.AbortWithStatusJSON(statusFor(err), body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// warning returns the message for a corrupt-store load, or "" for nil.
func warning(err error) (string, bool) {
	if err == nil {
		return "", true
	}
	if errors.Is(err, domain.ErrCorruptStore) {
		return err.Error(), true
	}
	return "", false
}
