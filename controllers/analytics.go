package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rabinkaspal/mongodb-aggregation/aggregations"
	"github.com/rabinkaspal/mongodb-aggregation/database"
)

// Analytics serves the query catalog over HTTP. Runner and Seed are
// injected so handler tests can run against an in-memory store.
type Analytics struct {
	Runner aggregations.Runner
	Seed   func(ctx context.Context) error
}

func (a *Analytics) respond(c *gin.Context, collection string, pipeline mongo.Pipeline) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	results, err := a.Runner.Aggregate(ctx, collection, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (a *Analytics) ProductsByCategory(c *gin.Context) {
	a.respond(c, database.CollProducts, aggregations.ProductsByCategory())
}

func (a *Analytics) ProductSummary(c *gin.Context) {
	a.respond(c, database.CollProducts, aggregations.ProductSummary())
}

func (a *Analytics) ProductFacets(c *gin.Context) {
	a.respond(c, database.CollProducts, aggregations.ProductAnalysisFacets())
}

func (a *Analytics) PopularFeatures(c *gin.Context) {
	a.respond(c, database.CollProducts, aggregations.PopularFeatures())
}

func (a *Analytics) OrderStatsByStatus(c *gin.Context) {
	a.respond(c, database.CollOrders, aggregations.OrderStatsByStatus())
}

func (a *Analytics) OrdersByPaymentMethod(c *gin.Context) {
	a.respond(c, database.CollOrders, aggregations.OrdersByPaymentMethod())
}

func (a *Analytics) DeliveredOrdersWithCustomers(c *gin.Context) {
	a.respond(c, database.CollOrders, aggregations.DeliveredOrdersWithCustomers())
}

func (a *Analytics) ProductSalesAnalysis(c *gin.Context) {
	a.respond(c, database.CollOrders, aggregations.ProductSalesAnalysis())
}

func (a *Analytics) ProductsWithReviews(c *gin.Context) {
	a.respond(c, database.CollProducts, aggregations.ElectronicsWithReviews())
}

// SeedDatabase wipes and reseeds all four collections.
func (a *Analytics) SeedDatabase(c *gin.Context) {
	if a.Seed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "seeding is not enabled"})
		return
	}
	if err := a.Seed(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Database seeded successfully"})
}
