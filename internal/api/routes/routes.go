// internal/api/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"giving-hand-api-server/config"
	"giving-hand-api-server/internal/api/handlers"
	"giving-hand-api-server/internal/api/middleware"
	"giving-hand-api-server/internal/auth"
	"giving-hand-api-server/internal/dialog"
	"giving-hand-api-server/internal/lifecycle"
	"giving-hand-api-server/internal/metrics"
	"giving-hand-api-server/internal/models"
	"giving-hand-api-server/internal/projection"
	"giving-hand-api-server/internal/socket"
	"giving-hand-api-server/internal/store"
)

// Deps are the components the router hands to its handlers.
type Deps struct {
	Config   config.Config
	Store    store.Store
	Tickets  *lifecycle.Service
	Views    *projection.Views
	Issuer   *auth.Issuer
	Hub      *socket.Hub
	Dialog   *dialog.Bot
	Metrics  *metrics.Metrics
	Uploader handlers.ProofUploader // nil when S3 is not configured
}

// SetupRouter wires every route of the API.
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	if len(d.Config.Server.CORSOrigins) == 0 || d.Config.Server.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = d.Config.Server.CORSOrigins
	}
	router.Use(cors.New(corsCfg))

	authHandler := handlers.NewAuthHandler(d.Store.Users(), d.Issuer)
	ticketHandler := handlers.NewTicketHandler(d.Tickets)
	deliveryHandler := handlers.NewDeliveryRequestHandler(d.Tickets, d.Views)
	factoryHandler := handlers.NewFactoryHandler(d.Tickets)
	viewHandler := handlers.NewViewHandler(d.Views)
	trackingHandler := handlers.NewTrackingHandler(d.Store, d.Uploader)
	donationHandler := handlers.NewDonationHandler(d.Store.Donations())
	adminHandler := handlers.NewAdminHandler(d.Store, d.Tickets)
	chatHandler := &handlers.ChatHandler{Dialog: d.Dialog, Metrics: d.Metrics}
	webSocketHandler := handlers.NewWebSocketHandler(d.Hub, d.Issuer)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}

		// Public
		apiV1.POST("/chat", chatHandler.Chat)
		apiV1.POST("/donations/money", donationHandler.CreateMoneyDonation)

		protected := apiV1.Group("/")
		protected.Use(middleware.Authenticate(d.Issuer))
		{
			protected.GET("/notifications", viewHandler.GetNotifications)
			protected.GET("/tickets/:id", ticketHandler.GetTicket)
			protected.POST("/tracking/:id/proof", trackingHandler.UploadProof)
			protected.GET("/tracking/:id/proofs", trackingHandler.GetProofs)
			protected.GET("/tracking/mine",
				middleware.Authorize(models.RoleOrganization, models.RoleCharity, models.RoleGuest),
				viewHandler.GetMyTracking)

			organization := protected.Group("/")
			organization.Use(middleware.Authorize(models.RoleOrganization))
			{
				organization.POST("/tickets", ticketHandler.CreateTicket)
				organization.GET("/tickets/mine", ticketHandler.GetMyTickets)
				organization.GET("/delivery-requests", deliveryHandler.List)
				organization.POST("/delivery-requests/:ticketID/accept", deliveryHandler.Accept)
				organization.POST("/delivery-requests/:ticketID/reject", deliveryHandler.Reject)
			}

			recipient := protected.Group("/")
			recipient.Use(middleware.Authorize(models.RoleCharity, models.RoleGuest))
			{
				recipient.GET("/tickets/available", ticketHandler.GetAvailableTickets)
				recipient.GET("/tickets/accepted", ticketHandler.GetAcceptedTickets)
				recipient.GET("/organizations/available", viewHandler.GetAvailableOrganizations)
				recipient.POST("/tickets/:id/accept", ticketHandler.AcceptTicket)
				recipient.POST("/tickets/:id/decline", ticketHandler.DeclineTicket)
				recipient.GET("/tickets/:id/delivery-methods", ticketHandler.GetDeliveryMethods)
				recipient.POST("/tickets/:id/delivery-method", ticketHandler.SelectDeliveryMethod)
			}

			factory := protected.Group("/factory")
			factory.Use(middleware.Authorize(models.RoleFactory))
			{
				factory.GET("/tickets", factoryHandler.GetQueue)
				factory.POST("/tickets/:id/accept", factoryHandler.Accept)
				factory.POST("/tickets/:id/decline", factoryHandler.Decline)
				factory.POST("/tickets/:id/convert", factoryHandler.Convert)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.Authorize(models.RoleAdmin))
			{
				admin.GET("/tickets", adminHandler.GetTickets)
				admin.POST("/tickets/sweep", adminHandler.RunSweep)
				admin.GET("/tracking", adminHandler.GetTracking)
				admin.GET("/tracking/export", adminHandler.ExportTracking)
				admin.PATCH("/tracking/:id", adminHandler.UpdateTracking)
				admin.GET("/donations", adminHandler.GetDonations)
				admin.GET("/users", adminHandler.GetUsers)
			}
		}
	}

	return router
}
