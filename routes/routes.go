package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rabinkaspal/mongodb-aggregation/controllers"
)

func Setup(r *gin.Engine, a *controllers.Analytics) {
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost:5173"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	analytics := r.Group("/analytics")
	{
		analytics.GET("/products/categories", a.ProductsByCategory)
		analytics.GET("/products/summary", a.ProductSummary)
		analytics.GET("/products/facets", a.ProductFacets)
		analytics.GET("/products/features", a.PopularFeatures)
		analytics.GET("/orders/status", a.OrderStatsByStatus)
		analytics.GET("/orders/payment-methods", a.OrdersByPaymentMethod)
		analytics.GET("/orders/customers", a.DeliveredOrdersWithCustomers)
		analytics.GET("/sales/products", a.ProductSalesAnalysis)
		analytics.GET("/reviews/products", a.ProductsWithReviews)
	}

	r.POST("/admin/seed", a.SeedDatabase)
}
