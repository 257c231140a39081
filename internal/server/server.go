package server

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/intellectualintimacy/backend/config"
	"github.com/intellectualintimacy/backend/internal/handlers"
	"github.com/intellectualintimacy/backend/internal/middleware"
	"github.com/intellectualintimacy/backend/internal/models"
	"github.com/intellectualintimacy/backend/internal/payments"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	paystackCfg, err := config.LoadPaystackConfig()
	if err != nil {
		return fmt.Errorf("failed to load paystack config: %v", err)
	}
	gateway := payments.NewClient(paystackCfg.SecretKey)

	r := gin.Default()

	setupRoutes(r, db, gateway, paystackCfg.SecretKey)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, db *gorm.DB, gateway payments.Gateway, paystackSecret string) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(middleware.PaystackMiddleware(gateway))

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		eventPublic := public.Group("/events")
		{
			eventPublic.GET("", handlers.ListEvents)
			eventPublic.GET("/:id", handlers.GetEvent)
			eventPublic.POST("/:id/checkout", handlers.CreateCheckout)
			eventPublic.POST("/:id/reservations", handlers.CreateReservation)
		}

		reservations := public.Group("/reservations")
		{
			reservations.GET("/:ticketId", handlers.GetReservation)
			reservations.POST("/:ticketId/cancel", handlers.CancelReservation)
			reservations.POST("/:ticketId/refund-request", handlers.RequestRefund)
			reservations.GET("/:ticketId/qr", handlers.GenerateTicketQR)
			reservations.GET("/:ticketId/pdf", handlers.DownloadTicketPDF)
		}

		newsletter := public.Group("/newsletter")
		{
			newsletter.POST("/subscribe", handlers.Subscribe)
			newsletter.POST("/unsubscribe", handlers.Unsubscribe)
		}

		posts := public.Group("/posts")
		{
			posts.GET("", handlers.ListPosts)
			posts.GET("/:slug", handlers.GetPost)
			posts.POST("/:slug/comments", handlers.CreateComment)
		}

		public.GET("/testimonials", handlers.ListTestimonials)
		public.POST("/testimonials", handlers.CreateTestimonial)

		public.POST("/donations", handlers.CreateDonation)
		public.GET("/donations/:reference/verify", handlers.VerifyDonation)

		public.POST("/payments/webhook", handlers.PaystackWebhook(paystackSecret))
	}

	admin := r.Group("/v1")
	admin.Use(middleware.JWTAuthMiddleware(), middleware.RequireRole(models.RoleAdmin))
	{
		adminEvents := admin.Group("/events")
		{
			adminEvents.POST("", handlers.CreateEvent)
			adminEvents.PUT("/:id", handlers.UpdateEvent)
			adminEvents.DELETE("/:id", handlers.DeleteEvent)
		}

		adminPosts := admin.Group("/posts")
		{
			adminPosts.POST("", handlers.CreatePost)
			adminPosts.PUT("/:slug", handlers.UpdatePost)
			adminPosts.DELETE("/:slug", handlers.DeletePost)
		}

		console := admin.Group("/admin")
		{
			console.GET("/reservations", handlers.ListReservations)
			console.GET("/reconciliations", handlers.ListReconciliations)
			console.POST("/reconciliations/:id/resolve", handlers.ResolveReconciliation)
			console.POST("/comments/:id/:decision", handlers.ModerateComment)
			console.POST("/testimonials/:id/:decision", handlers.ModerateTestimonial)
			console.GET("/subscribers", handlers.ListSubscribers)
		}
	}
}
