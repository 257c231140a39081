package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/intellectualintimacy/backend/internal/payments"
)

func PaystackMiddleware(gateway payments.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("paystack", gateway)
		c.Next()
	}
}

func GetPaystack(c *gin.Context) payments.Gateway {
	gateway, exists := c.Get("paystack")
	if !exists {
		return nil
	}
	return gateway.(payments.Gateway)
}
