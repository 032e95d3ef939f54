package aggregations

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rabinkaspal/mongodb-aggregation/database"
	"github.com/rabinkaspal/mongodb-aggregation/models"
)

// PriceBoundaries are the fixed price bucket edges; anything at or above
// the last finite edge lands in the final bucket.
var PriceBoundaries = bson.A{0, 100, 250, 500, 750, 1000, math.Inf(1)}

// ProductSalesAnalysis unwinds order items on orders that have not yet
// left the warehouse, joins each item to its product and ranks products
// by revenue. The status filter is a set exclusion ($nin); see DESIGN.md
// for the note on the original's $ne-against-a-list form.
func ProductSalesAnalysis() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status": bson.M{"$nin": bson.A{models.StatusDelivered, models.StatusShipped}},
		}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.CollProducts,
			"localField":   "items.product",
			"foreignField": "_id",
			"as":           "productDetails",
		}}},
		{{Key: "$unwind", Value: "$productDetails"}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"productId":       "$items.product",
				"productName":     "$productDetails.name",
				"productCategory": "$productDetails.category",
			},
			"totalQuantitySold": bson.M{"$sum": "$items.quantity"},
			"totalRevenue": bson.M{
				"$sum": bson.M{"$multiply": bson.A{"$items.price", "$items.quantity"}},
			},
			"orderCount": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalRevenue", Value: -1}}}},
		{{Key: "$limit", Value: 10}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "productName", Value: "$_id.productName"},
			{Key: "category", Value: "$_id.productCategory"},
			{Key: "totalQuantitySold", Value: 1},
			{Key: "totalRevenue", Value: 1},
			{Key: "orderCount", Value: 1},
			{Key: "averageOrderQuantity", Value: bson.M{
				"$divide": bson.A{"$totalQuantitySold", "$orderCount"},
			}},
		}}},
	}
}

// ProductAnalysisFacets runs three independent breakdowns over the
// product set in one pass: category statistics, price-range buckets and
// a stock-level tier classification.
func ProductAnalysisFacets() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$facet", Value: bson.M{
			"categoryBreakdown": mongo.Pipeline{
				{{Key: "$group", Value: bson.M{
					"_id":          "$category",
					"count":        bson.M{"$sum": 1},
					"averagePrice": bson.M{"$avg": "$price"},
					"totalStock":   bson.M{"$sum": "$stockLevel"},
				}}},
				{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
			},
			"priceRanges": mongo.Pipeline{
				{{Key: "$bucket", Value: bson.M{
					"groupBy":    "$price",
					"boundaries": PriceBoundaries,
					"default":    "Other",
					"output": bson.M{
						"count": bson.M{"$sum": 1},
						"products": bson.M{
							"$push": bson.M{"name": "$name", "price": "$price"},
						},
					},
				}}},
			},
			"stockStatus": mongo.Pipeline{
				{{Key: "$group", Value: bson.M{
					"_id":      stockTierExpr(),
					"count":    bson.M{"$sum": 1},
					"avgPrice": bson.M{"$avg": "$price"},
				}}},
				{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
			},
		}}},
	}
}

// stockTierExpr classifies stockLevel with a first-match-wins cascade:
// 0, then below 10, then below 50, otherwise well stocked.
func stockTierExpr() bson.M {
	return bson.M{
		"$cond": bson.M{
			"if":   bson.M{"$eq": bson.A{"$stockLevel", 0}},
			"then": "Out of Stock",
			"else": bson.M{
				"$cond": bson.M{
					"if":   bson.M{"$lt": bson.A{"$stockLevel", 10}},
					"then": "Low Stock",
					"else": bson.M{
						"$cond": bson.M{
							"if":   bson.M{"$lt": bson.A{"$stockLevel", 50}},
							"then": "Medium Stock",
							"else": "Well Stocked",
						},
					},
				},
			},
		},
	}
}

// RunUnwindFacet executes the unwind and facet examples and prints each
// result set.
func RunUnwindFacet(ctx context.Context, r Runner) error {
	sales, err := r.Aggregate(ctx, database.CollOrders, ProductSalesAnalysis())
	if err != nil {
		return err
	}
	printSection("Product Sales Analysis")
	printDocs(sales)

	analysis, err := r.Aggregate(ctx, database.CollProducts, ProductAnalysisFacets())
	if err != nil {
		return err
	}
	printSection("Multi-dimensional Product Analysis")
	printDocs(analysis)

	return nil
}
