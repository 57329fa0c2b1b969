package ginadapter

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evmgate/go-payment-middleware/pkg/config"
	"github.com/evmgate/go-payment-middleware/pkg/middleware"
)

type ginContextKey struct{}

// PaymentMiddleware creates a Gin handler guarding a route with the given
// payment terms. The guard is built once, so its replay protection spans
// all requests through the returned handler.
func PaymentMiddleware(factory *middleware.PaymentMiddlewareFactory, route config.RouteConfig) (gin.HandlerFunc, error) {
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
		if !ok {
			return
		}

		c.Request = r
		c.Next()
	})

	handler, err := factory.HTTPHandler(route, next)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), ginContextKey{}, c)
		handler.ServeHTTP(c.Writer, c.Request.WithContext(ctx))

		if c.Writer.Written() {
			c.Abort()
		}
	}, nil
}

// MustPaymentMiddleware is PaymentMiddleware panicking on configuration
// errors, for route tables built at startup.
func MustPaymentMiddleware(factory *middleware.PaymentMiddlewareFactory, route config.RouteConfig) gin.HandlerFunc {
	handler, err := PaymentMiddleware(factory, route)
	if err != nil {
		panic(err)
	}

	return handler
}
