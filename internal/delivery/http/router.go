package http

import (
	"github.com/gdugdh24/roomshare-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/roomshare-backend/internal/delivery/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Router struct {
	sharingHandler  *handler.SharingHandler
	matchingHandler *handler.MatchingHandler
	authMiddleware  *middleware.AuthMiddleware
	logger          *zap.Logger
}

func NewRouter(
	sharingHandler *handler.SharingHandler,
	matchingHandler *handler.MatchingHandler,
	authMiddleware *middleware.AuthMiddleware,
	logger *zap.Logger,
) *Router {
	return &Router{
		sharingHandler:  sharingHandler,
		matchingHandler: matchingHandler,
		authMiddleware:  authMiddleware,
		logger:          logger,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(r.logger))

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			rooms := protected.Group("/rooms")
			{
				rooms.GET("/:id", r.sharingHandler.GetRoom)
				rooms.PATCH("/:id", r.sharingHandler.UpdateRoom)
			}

			sharing := protected.Group("/room-sharing")
			{
				sharing.POST("/enable", r.sharingHandler.EnableSharing)
				sharing.POST("/requirements", r.sharingHandler.SubmitRequirements)
				sharing.GET("/requirements", r.sharingHandler.GetRequirements)

				requests := sharing.Group("/requests")
				{
					requests.POST("", r.matchingHandler.CreateRequest)
					requests.GET("/to-approve", r.matchingHandler.ToApprove)
					requests.GET("/history", r.matchingHandler.History)
					requests.GET("/mine", r.matchingHandler.Mine)
					requests.GET("/:id", r.matchingHandler.GetRequest)
					requests.POST("/:id/approve", r.matchingHandler.Approve)
					requests.POST("/:id/reject", r.matchingHandler.Reject)
					requests.POST("/:id/landlord-approve", r.matchingHandler.LandlordApprove)
					requests.POST("/:id/landlord-reject", r.matchingHandler.LandlordReject)
				}
			}
		}
	}

	return router
}
