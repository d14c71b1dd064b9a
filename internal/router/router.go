package router

import (
	"time"

	"scripta/config"
	"scripta/internal/domain"
	"scripta/internal/handler"
	"scripta/internal/middleware"
	"scripta/internal/repository"
	"scripta/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	bidRepo := repository.NewBidRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	paymentRepo := repository.NewOrderPaymentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo)
	bidSvc := service.NewBidService(db, cfg, bidRepo, orderRepo, walletRepo, notifSvc)
	withdrawalSvc := service.NewWithdrawalService(db, withdrawalRepo, walletRepo, notifSvc)
	paymentSvc := service.NewPaymentService(db, cfg, paymentRepo, orderRepo, walletRepo, userRepo, notifSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	walletHandler := handler.NewWalletHandler(walletRepo, paymentSvc)
	orderHandler := handler.NewOrderHandler(cfg, orderRepo)
	bidHandler := handler.NewBidHandler(bidSvc, bidRepo, orderRepo)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc, withdrawalRepo)
	webhookHandler := handler.NewWebhookHandler(paymentSvc, cfg.Paystack.SecretKey)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)
	clientMw := middleware.RequireRole(domain.RoleClient)
	writerMw := middleware.RequireRole(domain.RoleWriter)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		// Gateway webhooks carry their own signature; no JWT here.
		api.POST("/webhooks/paystack", webhookHandler.Paystack)

		wallet := api.Group("/wallet")
		wallet.Use(authMw)
		{
			wallet.GET("", walletHandler.GetBalance)
			wallet.GET("/transactions", walletHandler.GetTransactions)
			wallet.POST("/deposit", walletHandler.InitDeposit)
			wallet.GET("/deposit/verify/:reference", walletHandler.VerifyDeposit)
		}

		orders := api.Group("/orders")
		orders.Use(authMw)
		{
			orders.POST("", clientMw, orderHandler.Create)
			orders.GET("", clientMw, orderHandler.ListMine)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("/:id/pay", clientMw, walletHandler.InitOrderPayment)
			orders.POST("/:id/bids", writerMw, bidHandler.Place)
			orders.GET("/:id/bids", clientMw, bidHandler.ListForOrder)
		}

		bids := api.Group("/bids")
		bids.Use(authMw)
		{
			bids.GET("", writerMw, bidHandler.ListMine)
			bids.PUT("/:id", writerMw, bidHandler.Update)
			bids.DELETE("/:id", writerMw, bidHandler.Withdraw)
			bids.PUT("/:id/confirm", writerMw, bidHandler.Confirm)
			bids.PUT("/:id/status", clientMw, bidHandler.UpdateStatus)
		}

		withdrawals := api.Group("/withdrawals")
		withdrawals.Use(authMw)
		{
			withdrawals.POST("", withdrawalHandler.Create)
			withdrawals.GET("", withdrawalHandler.ListMine)
		}

		notifications := api.Group("/notifications")
		notifications.Use(authMw)
		{
			notifications.GET("", notificationHandler.List)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/withdrawals", withdrawalHandler.List)
			admin.PATCH("/withdrawals/:id/approve", withdrawalHandler.Approve)
			admin.PATCH("/withdrawals/:id/reject", withdrawalHandler.Reject)
		}
	}

	return r
}
