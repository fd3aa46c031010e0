package router

import (
	"github.com/blues/eps/internal/handler"
	"github.com/blues/eps/internal/logic"
	"github.com/blues/eps/internal/task"
	"github.com/gin-gonic/gin"
)

func Setup(escrowLogic *logic.EscrowLogic, disputeLogic *logic.DisputeLogic, taskManager *task.Manager) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "escrow-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 托管相关路由
		escrowHandler := handler.NewEscrowHandler(escrowLogic)
		escrows := v1.Group("/escrows")
		{
			escrows.POST("", escrowHandler.CreateEscrow)
			escrows.POST("/verify", escrowHandler.VerifyPayment)
			escrows.GET("", escrowHandler.GetEscrows)
			escrows.GET("/:id", escrowHandler.GetEscrow)
			escrows.GET("/:id/history", escrowHandler.GetEscrowHistory)
			escrows.DELETE("/:id", escrowHandler.CancelEscrow)
			escrows.POST("/:id/deliverable", escrowHandler.SubmitDeliverable)
			escrows.POST("/:id/approval", escrowHandler.RecordApproval)
			escrows.POST("/:id/dispute", escrowHandler.RaiseDispute)
			escrows.POST("/:id/release", escrowHandler.ReleaseFunds)
		}

		// 里程碑托管查询
		v1.GET("/milestones/:id/escrow", escrowHandler.GetMilestoneEscrow)

		// 管理相关路由
		disputeHandler := handler.NewDisputeHandler(disputeLogic)
		adminHandler := handler.NewAdminHandler(taskManager)
		admin := v1.Group("/admin")
		{
			admin.GET("/disputes", disputeHandler.ListOpenDisputes)
			admin.POST("/escrows/:id/resolve", disputeHandler.ResolveDispute)
			admin.POST("/sweep", adminHandler.TriggerSweep)
		}
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
