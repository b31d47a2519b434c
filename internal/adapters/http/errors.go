package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vocably/vocably/internal/adapters/media"
	"github.com/vocably/vocably/internal/domain"
)

var statusByError = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidRequest, http.StatusBadRequest},
	{domain.ErrInvalidRoom, http.StatusBadRequest},
	{domain.ErrUsernameEmpty, http.StatusBadRequest},
	{domain.ErrUsernameTooLong, http.StatusBadRequest},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrWrongPassword, http.StatusForbidden},
	{domain.ErrRoomNotFound, http.StatusNotFound},
	{domain.ErrProfileNotFound, http.StatusNotFound},
	{domain.ErrRoomFull, http.StatusConflict},
	{domain.ErrAlreadyReported, http.StatusConflict},
	{media.ErrNotConfigured, http.StatusServiceUnavailable},
}

func statusOf(err error) int {
	for _, e := range statusByError {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes the error as {"error": msg}. Unknown errors are logged
// and reported without detail.
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
