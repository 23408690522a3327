package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/repository"
	"github.com/stemsi/classroom-backend/internal/response"
	"github.com/stemsi/classroom-backend/internal/service"
)

// RequireActiveUser rejects access tokens whose user was disabled or removed after issue,
// and refreshes the subject's role and email from the stored user.
// Must run after RequireAuth or RequireWSAuth.
func RequireActiveUser(users service.UserStore, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, ok := GetSubject(c)
		if !ok {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		u, err := users.GetByID(c.Request.Context(), sub.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
				return
			}
			log.Error().Err(err).Str("user_id", sub.ID.Hex()).Msg("Active user check failed")
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		if !u.IsActive {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		sub.Role = u.Role
		sub.Email = u.Email
		c.Set(ContextKeySubject, sub)

		c.Next()
	}
}
