package routes

import (
	"github.com/cliniqa/intake/internal/api/handlers"
	"github.com/cliniqa/intake/internal/api/middleware"
	"github.com/cliniqa/intake/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Interview  *handlers.InterviewHandler
	Invitation *handlers.InvitationHandler
	Limiter    ratelimit.Limiter
	Logger     *logrus.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Patient surface: invitation + session token, no account
	r.POST("/interview/open", middleware.InviteSessionOptional(), d.Interview.Open)
	r.POST("/interview/turn",
		middleware.InviteSession(),
		middleware.RateLimit(d.Limiter, d.Logger),
		d.Interview.Turn,
	)

	// Physician surface (portal JWT)
	portal := r.Group("/")
	portal.Use(middleware.PortalAuth(), middleware.RequireRole("physician", "admin"))

	portal.POST("/invitations", d.Invitation.Create)
	portal.GET("/invitations/:invitation_id", d.Invitation.Get)
	portal.GET("/invitations/:invitation_id/audit", d.Invitation.Audit)
	portal.POST("/invitations/:invitation_id/revoke", d.Invitation.Revoke)
}
