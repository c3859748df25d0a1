package http

import (
	"github.com/gin-gonic/gin"
	"github.com/kiddmetro/wallet-auth/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(walletService *service.WalletService) *gin.Engine {
	router := gin.Default()

	handlers := NewWalletHandlers(walletService)

	// Session entry points: registration and login are the only two ways
	// into a wallet session.
	wallet := router.Group("/wallet")
	{
		wallet.POST("/register/begin", handlers.RegisterBegin)
		wallet.POST("/register/finish", handlers.RegisterFinish)
		wallet.POST("/login/begin", handlers.LoginBegin)
		wallet.POST("/login/finish", handlers.LoginFinish)
	}

	auth := router.Group("/auth")
	{
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
	}

	// Wallet-affecting operations, gated behind the session token.
	api := router.Group("/api")
	api.Use(SessionMiddleware(walletService))
	{
		api.GET("/wallet", handlers.CurrentWallet)
		api.POST("/sign", handlers.SignMessage)
	}

	return router
}
