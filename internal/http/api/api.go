// Package api wires the HTTP surface: route registration, caller
// authentication, and invitation rate limiting.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/caregrid/caregrid/internal/config"
	"github.com/caregrid/caregrid/internal/groups"
	"github.com/caregrid/caregrid/internal/http/api/handlers"
	"github.com/caregrid/caregrid/internal/ratelimit"
	"github.com/caregrid/caregrid/internal/security"
	"github.com/caregrid/caregrid/internal/settings"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegisterRoutes registers routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc *groups.Service, jwtCfg config.JWTConfig, limiter ratelimit.Limiter) {
	if r == nil || db == nil || svc == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	authed := r.Group("/v0")
	authed.Use(userAuthMiddleware(jwtCfg))

	groupHandler := handlers.NewGroupHandler(svc)
	authed.POST("/groups", groupHandler.Create)
	authed.GET("/groups", groupHandler.List)
	authed.GET("/groups/:id", groupHandler.Get)
	authed.PUT("/groups/:id", groupHandler.Update)
	authed.DELETE("/groups/:id", groupHandler.Delete)
	authed.GET("/groups/:id/audit", groupHandler.Audit)

	memberHandler := handlers.NewMemberHandler(svc)
	authed.GET("/groups/:id/members", memberHandler.List)
	authed.PUT("/groups/:id/members/:user_id/role", memberHandler.ChangeRole)
	authed.DELETE("/groups/:id/members/:user_id", memberHandler.Remove)

	invitationHandler := handlers.NewInvitationHandler(svc)
	authed.POST("/groups/:id/invitations", inviteRateLimitMiddleware(db, limiter), invitationHandler.Create)
	authed.GET("/groups/:id/invitations", invitationHandler.List)
	authed.DELETE("/groups/:id/invitations/:invitation_id", invitationHandler.Revoke)
	authed.POST("/invitations/accept", invitationHandler.Accept)
	authed.POST("/invitations/decline", invitationHandler.Decline)

	patientHandler := handlers.NewPatientHandler(svc)
	authed.POST("/groups/:id/patients", patientHandler.Assign)
	authed.GET("/groups/:id/patients", patientHandler.List)
	authed.DELETE("/groups/:id/patients/:patient_id", patientHandler.Unassign)
}

// userAuthMiddleware validates session JWTs and stores the caller's user ID.
func userAuthMiddleware(jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Next()
	}
}

// inviteRateLimitMiddleware caps invitation creation per caller. The limit
// lives in the settings table so it can change without a restart; zero
// disables the check. A limiter backend failure fails open.
func inviteRateLimitMiddleware(db *gorm.DB, limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		limit := settings.IntValue(db, settings.InviteRateLimitKey, settings.DefaultInviteRateLimit)
		if limit <= 0 {
			c.Next()
			return
		}

		key := ratelimit.InviteKey(handlers.CallerID(c))
		if key == "" {
			c.Next()
			return
		}

		result, errAllow := limiter.Allow(c.Request.Context(), key, limit, time.Now().UTC())
		if errAllow != nil {
			log.WithError(errAllow).Warn("invite rate limiter unavailable")
			c.Next()
			return
		}
		if !result.Allowed {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many invitations"})
			return
		}
		c.Next()
	}
}
