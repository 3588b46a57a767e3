package http

import (
	"github.com/gin-gonic/gin"

	"github.com/zentrais/zentrais-api/internal/models"
)

// CurrentUserProvider resolves the acting user for a request. The store layer
// stays ignorant of how identity is established, so a real authentication
// collaborator can replace the header scheme without touching store logic.
type CurrentUserProvider interface {
	CurrentUser(c *gin.Context) (models.User, bool)
}

// HeaderUserProvider trusts the X-User-ID / X-User-Name headers. This is the
// demo deployment's stand-in for authentication.
type HeaderUserProvider struct{}

func (HeaderUserProvider) CurrentUser(c *gin.Context) (models.User, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		return models.User{}, false
	}
	return models.User{ID: id, Name: c.GetHeader("X-User-Name")}, true
}
