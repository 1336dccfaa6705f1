package router

import (
	"github.com/blues/crowdfund/internal/config"
	"github.com/blues/crowdfund/internal/handler"
	"github.com/blues/crowdfund/internal/host"
	"github.com/blues/crowdfund/internal/logic"
	"github.com/gin-gonic/gin"
)

func Setup(runtime *host.Runtime, eventLogic *logic.EventLogic, cfg *config.Config) *gin.Engine {
	if cfg != nil && cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "crowdfund-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 合约调用
		campaignHandler := handler.NewCampaignHandler(runtime, eventLogic)
		campaign := v1.Group("/campaign")
		{
			campaign.GET("", campaignHandler.GetCampaign)
			campaign.GET("/status", campaignHandler.GetStatus)
			campaign.GET("/funds", campaignHandler.GetCurrentFunds)
			campaign.GET("/target", campaignHandler.GetTarget)
			campaign.GET("/deadline", campaignHandler.GetDeadline)
			campaign.GET("/max-per-wallet", campaignHandler.GetMaxPerWallet)
			campaign.PUT("/max-per-wallet", campaignHandler.SetMaxPerWallet)
			campaign.GET("/deposits/:address", campaignHandler.GetDeposit)
			campaign.POST("/fund", campaignHandler.Fund)
			campaign.POST("/claim", campaignHandler.Claim)
			campaign.GET("/events", campaignHandler.GetEvents)
			campaign.GET("/stats", campaignHandler.GetStats)
		}

		// 宿主账本
		accountHandler := handler.NewAccountHandler(runtime)
		v1.GET("/accounts/:address", accountHandler.GetBalance)
		v1.POST("/transfers", accountHandler.Transfer)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
