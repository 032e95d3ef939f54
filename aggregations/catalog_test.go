package aggregations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rabinkaspal/mongodb-aggregation/database"
	"github.com/rabinkaspal/mongodb-aggregation/memstore"
	"github.com/rabinkaspal/mongodb-aggregation/models"
)

// fixtureDB builds a small deterministic dataset: four products across
// three categories, one customer, three orders in different statuses and
// two reviews on the expensive electronics product.
func fixtureDB(t *testing.T) (*memstore.DB, bson.M) {
	t.Helper()

	ids := bson.M{
		"p1": primitive.NewObjectID(),
		"p2": primitive.NewObjectID(),
		"p3": primitive.NewObjectID(),
		"p4": primitive.NewObjectID(),
		"c1": primitive.NewObjectID(),
	}

	db := memstore.New()
	features := func(color string, dim int) bson.M {
		return bson.M{
			"color":  color,
			"weight": 4,
			"dimensions": bson.M{
				"width":  dim,
				"height": dim,
				"depth":  dim,
			},
		}
	}
	db.Insert(database.CollProducts,
		bson.M{"_id": ids["p1"], "name": "Laptop", "category": "Electronics", "price": 600.0, "stockLevel": 0, "features": features("black", 3)},
		bson.M{"_id": ids["p2"], "name": "Headphones", "category": "Electronics", "price": 120.0, "stockLevel": 5, "features": features("red", 10)},
		bson.M{"_id": ids["p3"], "name": "Novel", "category": "Books", "price": 80.0, "stockLevel": 30, "features": features("blue", 4)},
		bson.M{"_id": ids["p4"], "name": "Treadmill", "category": "Sports", "price": 1200.0, "stockLevel": 80, "features": features("green", 12)},
	)

	db.Insert(database.CollCustomers, bson.M{
		"_id":       ids["c1"],
		"firstName": "First1",
		"lastName":  "Last1",
		"email":     "customer1@example.com",
		"address":   bson.M{"street": "1000 Main St", "city": "New York", "state": "NY", "zipCode": "10000", "country": "USA"},
	})

	now := time.Now()
	db.Insert(database.CollOrders,
		bson.M{
			"_id":      primitive.NewObjectID(),
			"customer": ids["c1"],
			"status":   models.StatusDelivered,
			"items": bson.A{
				bson.M{"product": ids["p1"], "quantity": 1, "price": 600.0},
			},
			"totalAmount":     600.0,
			"paymentMethod":   models.PaymentCash,
			"shippingAddress": bson.M{"city": "New York"},
			"createdAt":       now.Add(-24 * time.Hour),
		},
		bson.M{
			"_id":      primitive.NewObjectID(),
			"customer": ids["c1"],
			"status":   models.StatusPending,
			"items": bson.A{
				bson.M{"product": ids["p2"], "quantity": 2, "price": 120.0},
				bson.M{"product": ids["p3"], "quantity": 1, "price": 80.0},
			},
			"totalAmount":     320.0,
			"paymentMethod":   models.PaymentPaypal,
			"shippingAddress": bson.M{"city": "New York"},
			"createdAt":       now.Add(-48 * time.Hour),
		},
		bson.M{
			"_id":      primitive.NewObjectID(),
			"customer": ids["c1"],
			"status":   models.StatusShipped,
			"items": bson.A{
				bson.M{"product": ids["p4"], "quantity": 1, "price": 1200.0},
			},
			"totalAmount":     1200.0,
			"paymentMethod":   models.PaymentCash,
			"shippingAddress": bson.M{"city": "New York"},
			"createdAt":       now.Add(-72 * time.Hour),
		},
	)

	db.Insert(database.CollReviews,
		bson.M{"_id": primitive.NewObjectID(), "product": ids["p1"], "customer": ids["c1"], "rating": 5, "title": "Review 1 for Laptop", "comment": "Highly recommended!"},
		bson.M{"_id": primitive.NewObjectID(), "product": ids["p1"], "customer": ids["c1"], "rating": 4, "title": "Review 2 for Laptop", "comment": "Highly recommended!"},
	)

	return db, ids
}

func TestExpensiveElectronics(t *testing.T) {
	db, _ := fixtureDB(t)

	got, err := db.Aggregate(context.Background(), database.CollProducts, ExpensiveElectronics())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Laptop", got[0]["name"])
}

func TestProductSummary(t *testing.T) {
	db, _ := fixtureDB(t)

	got, err := db.Aggregate(context.Background(), database.CollProducts, ProductSummary())
	require.NoError(t, err)
	require.Len(t, got, 4)

	top := got[0]
	assert.Equal(t, "Treadmill", top["productName"])
	assert.NotContains(t, top, "_id")
	assert.Equal(t, true, top["inStock"])

	for _, doc := range got {
		if doc["productName"] == "Laptop" {
			assert.Equal(t, false, doc["inStock"], "zero stock is not in stock")
		}
	}
}

func TestProductsByCategory(t *testing.T) {
	db, _ := fixtureDB(t)

	got, err := db.Aggregate(context.Background(), database.CollProducts, ProductsByCategory())
	require.NoError(t, err)
	require.Len(t, got, 3)

	electronics := got[0]
	assert.Equal(t, "Electronics", electronics["_id"])
	assert.EqualValues(t, 2, electronics["count"])
	assert.EqualValues(t, 360, electronics["averagePrice"])
	assert.EqualValues(t, 120, electronics["minPrice"])
	assert.EqualValues(t, 600, electronics["maxPrice"])
}

func TestOrderStatsByStatus(t *testing.T) {
	db, _ := fixtureDB(t)

	got, err := db.Aggregate(context.Background(), database.CollOrders, OrderStatsByStatus())
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, doc := range got {
		assert.EqualValues(t, 1, doc["orderCount"])
		assert.Equal(t, doc["totalRevenue"], doc["averageOrderValue"])
	}
}

func TestOrdersByPaymentMethod(t *testing.T) {
	db, _ := fixtureDB(t)

	got, err := db.Aggregate(context.Background(), database.CollOrders, OrdersByPaymentMethod())
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Sorted by totalRevenue ascending: paypal (320) before cash (1800).
	paypal, cash := got[0], got[1]
	assert.Equal(t, models.PaymentPaypal, paypal["paymentMethod"])
	assert.NotContains(t, paypal, "_id")
	assert.EqualValues(t, 320, paypal["totalRevenue"])
	assert.EqualValues(t, 1, paypal["percentageOfTotal"])

	assert.Equal(t, models.PaymentCash, cash["paymentMethod"])
	assert.EqualValues(t, 2, cash["orderCount"])
	assert.EqualValues(t, 1800, cash["totalRevenue"])
}

func TestDeliveredOrdersWithCustomers(t *testing.T) {
	db, _ := fixtureDB(t)

	got, err := db.Aggregate(context.Background(), database.CollOrders, DeliveredOrdersWithCustomers())
	require.NoError(t, err)
	require.Len(t, got, 1)

	order := got[0]
	assert.Equal(t, "First1 Last1", order["customerName"])
	assert.Equal(t, "customer1@example.com", order["customerEmail"])
	assert.Equal(t, "New York", order["shippingCity"])
	assert.Equal(t, models.StatusDelivered, order["status"])
	assert.EqualValues(t, 600, order["totalAmount"])
	assert.Contains(t, order, "_id")
}

func TestElectronicsWithReviews(t *testing.T) {
	db, _ := fixtureDB(t)

	got, err := db.Aggregate(context.Background(), database.CollProducts, ElectronicsWithReviews())
	require.NoError(t, err)
	require.Len(t, got, 1, "products without reviews are filtered out")

	laptop := got[0]
	assert.Equal(t, "Laptop", laptop["name"])
	assert.EqualValues(t, 2, laptop["reviewCount"])
	assert.InDelta(t, 4.5, laptop["averageRating"].(float64), 1e-9)

	reviews, ok := laptop["reviews"].([]interface{})
	require.True(t, ok)
	require.Len(t, reviews, 2)
	first, ok := reviews[0].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "Review 1 for Laptop", first["title"])
	assert.EqualValues(t, 5, first["rating"])
}

func TestPopularFeatures(t *testing.T) {
	db, _ := fixtureDB(t)

	got, err := db.Aggregate(context.Background(), database.CollProducts, PopularFeatures())
	require.NoError(t, err)

	// Only the 10^3 and 12^3 volumes clear the threshold; 3^3 and 4^3
	// do not.
	require.Len(t, got, 2)
	for _, group := range got {
		assert.EqualValues(t, 1, group["productCount"])
		products, ok := group["products"].([]interface{})
		require.True(t, ok)
		require.Len(t, products, 1)
	}
	colors := []interface{}{got[0]["_id"], got[1]["_id"]}
	assert.Contains(t, colors, "red")
	assert.Contains(t, colors, "green")
}

func TestProductSalesAnalysis(t *testing.T) {
	db, _ := fixtureDB(t)

	got, err := db.Aggregate(context.Background(), database.CollOrders, ProductSalesAnalysis())
	require.NoError(t, err)

	// Delivered and shipped orders are excluded, leaving the pending
	// order's two items.
	require.Len(t, got, 2)

	headphones := got[0]
	assert.Equal(t, "Headphones", headphones["productName"])
	assert.Equal(t, "Electronics", headphones["category"])
	assert.EqualValues(t, 2, headphones["totalQuantitySold"])
	assert.EqualValues(t, 240, headphones["totalRevenue"])
	assert.EqualValues(t, 1, headphones["orderCount"])
	assert.EqualValues(t, 2, headphones["averageOrderQuantity"])
	assert.NotContains(t, headphones, "_id")

	novel := got[1]
	assert.Equal(t, "Novel", novel["productName"])
	assert.EqualValues(t, 80, novel["totalRevenue"])
}

func TestProductAnalysisFacets(t *testing.T) {
	db, _ := fixtureDB(t)

	got, err := db.Aggregate(context.Background(), database.CollProducts, ProductAnalysisFacets())
	require.NoError(t, err)
	require.Len(t, got, 1)
	facets := got[0]

	categories, ok := facets["categoryBreakdown"].([]bson.M)
	require.True(t, ok)
	require.Len(t, categories, 3)
	assert.Equal(t, "Electronics", categories[0]["_id"])
	assert.EqualValues(t, 2, categories[0]["count"])

	prices, ok := facets["priceRanges"].([]bson.M)
	require.True(t, ok)
	require.Len(t, prices, 4)
	assert.EqualValues(t, 0, prices[0]["_id"], "an 80 price lands in the first bucket")
	assert.EqualValues(t, 100, prices[1]["_id"])
	assert.EqualValues(t, 500, prices[2]["_id"])
	assert.EqualValues(t, 1000, prices[3]["_id"], "a 1200 price lands in the final bucket")

	tiers, ok := facets["stockStatus"].([]bson.M)
	require.True(t, ok)
	require.Len(t, tiers, 4)
	// Sorted by _id ascending.
	assert.Equal(t, "Low Stock", tiers[0]["_id"])
	assert.Equal(t, "Medium Stock", tiers[1]["_id"])
	assert.Equal(t, "Out of Stock", tiers[2]["_id"])
	assert.Equal(t, "Well Stocked", tiers[3]["_id"])
	for _, tier := range tiers {
		assert.EqualValues(t, 1, tier["count"])
	}
}

func TestTopStockedProducts(t *testing.T) {
	db, _ := fixtureDB(t)

	got, err := db.Aggregate(context.Background(), database.CollProducts, TopStockedProducts())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Treadmill", got[0]["name"])
}
