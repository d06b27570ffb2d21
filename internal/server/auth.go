package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type meResponse struct {
	Subject   string   `json:"subject"`
	Roles     []string `json:"roles"`
	ExpiresAt *string  `json:"expires_at,omitempty"`
}

func (s *Server) Me(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp := meResponse{Subject: principal.Subject, Roles: principal.Roles}
	if principal.ExpiresAt != nil {
		formatted := principal.ExpiresAt.UTC().Format(timeLayout)
		resp.ExpiresAt = &formatted
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Logout drops the session cookie. Tokens are issued and revoked by the
// identity provider.
func (s *Server) Logout(c *gin.Context) {
	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}
