package v1

import (
	"nutrihub/api/v1/auth"
	"nutrihub/api/v1/broadcasting"
	"nutrihub/api/v1/files"
	"nutrihub/api/v1/meals"
	"nutrihub/api/v1/messages"
	"nutrihub/api/v1/middleware"
	"nutrihub/api/v1/notifications"
	"nutrihub/api/v1/plans"
	"nutrihub/api/v1/preferences"
	presencev1 "nutrihub/api/v1/presence"
	"nutrihub/internal/channels"
	"nutrihub/internal/config"
	"nutrihub/internal/httpx"
	"nutrihub/internal/notify"
	"nutrihub/internal/presence"
	"nutrihub/internal/realtime"
	"nutrihub/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps bundles the realtime components the routes are built on
type Deps struct {
	DB         *gorm.DB
	Cfg        *config.Config
	Store      *presence.Store
	Authorizer *channels.Authorizer
	Directory  *channels.GormDirectory
	Emitter    *realtime.Emitter
	Notify     *notify.Service
	WS         *ws.Server
}

// SetupRouter sets up the API v1 routes
func SetupRouter(r *gin.Engine, deps Deps) {
	// Websocket handshake carries its own token (query or header)
	r.GET("/ws", deps.WS.HandleWS)

	v1 := r.Group("/api/v1")
	{
		// Public routes (no authentication required)
		v1.GET("/ping", pingHandler)

		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", auth.LoginHandler(deps.DB, deps.Cfg))
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/me", meHandler)

			// Presence routes
			presenceHandler := presencev1.NewHandler(deps.Store, deps.Authorizer, deps.Emitter)
			presenceGroup := protected.Group("/presence")
			{
				presenceGroup.POST("/status", presenceHandler.Status)
				presenceGroup.POST("/away", presenceHandler.Away)
				presenceGroup.POST("/get", presenceHandler.Get)
				presenceGroup.POST("/typing", presenceHandler.Typing)
			}

			// Notification routes
			notificationsHandler := notifications.NewHandler(deps.Notify)
			notificationsGroup := protected.Group("/notifications")
			{
				notificationsGroup.GET("", notificationsHandler.List)
				notificationsGroup.GET("/unread/count", notificationsHandler.UnreadCount)
				notificationsGroup.POST("/read", notificationsHandler.MarkRead)
				notificationsGroup.POST("/read-all", notificationsHandler.MarkAllRead)
			}

			// Channel authorization handshake
			broadcastingHandler := broadcasting.NewHandler(deps.Authorizer)
			protected.POST("/broadcasting/auth", broadcastingHandler.Auth)

			// Domain routes that emit realtime events
			plansHandler := plans.NewHandler(deps.DB, deps.Emitter, deps.Notify)
			protected.POST("/plans/update", plansHandler.Update)

			messagesHandler := messages.NewHandler(deps.DB, deps.Directory, deps.Emitter)
			protected.POST("/messages/send", messagesHandler.Send)

			mealsHandler := meals.NewHandler(deps.DB, deps.Emitter, deps.Notify)
			protected.POST("/meals/log", mealsHandler.Log)

			preferencesHandler := preferences.NewHandler(deps.DB, deps.Emitter)
			protected.POST("/preferences/update", preferencesHandler.Update)

			filesHandler := files.NewHandler(deps.DB, deps.Emitter)
			protected.POST("/files/complete", filesHandler.Complete)
		}
	}
}

// pingHandler handles the ping request using unified response
func pingHandler(c *gin.Context) {
	httpx.OK(c, gin.H{
		"pong": true,
	})
}

// meHandler returns current user information
func meHandler(c *gin.Context) {
	uid, _ := c.Get("uid")
	name, _ := c.Get("name")
	role, _ := c.Get("role")

	httpx.OK(c, gin.H{
		"uid":  uid,
		"name": name,
		"role": role,
	})
}
