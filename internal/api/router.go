package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/payment-system/payment-verifier/internal/handlers"
	"github.com/akylbek/payment-system/payment-verifier/internal/interfaces"
	"github.com/akylbek/payment-system/payment-verifier/internal/telemetry"
)

func NewRouter(checkout interfaces.CheckoutService, catalog interfaces.MethodCatalog) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": telemetry.ServiceName})
	})

	// Payment routes
	paymentHandler := handlers.NewPaymentHandler(checkout, catalog)
	historyHandler := handlers.NewVerificationHistoryHandler(checkout)

	payments := r.Group("/payments")
	payments.GET("/methods", paymentHandler.GetPaymentMethods)
	payments.POST("/prepare", paymentHandler.PreparePayment)
	payments.POST("/verify", paymentHandler.VerifyPayment)
	payments.POST("/verify/batch", paymentHandler.VerifyBatch)
	payments.GET("/:order/verify", paymentHandler.VerifyPendingPayment)
	payments.DELETE("/:order/pending", paymentHandler.ClearPending)
	payments.GET("/:order/verifications", historyHandler.GetVerifications)

	return r
}
