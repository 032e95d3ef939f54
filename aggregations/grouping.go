package aggregations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rabinkaspal/mongodb-aggregation/database"
)

// ProductsByCategory groups products per category with count and price
// statistics, most populous category first.
func ProductsByCategory() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          "$category",
			"count":        bson.M{"$sum": 1},
			"averagePrice": bson.M{"$avg": "$price"},
			"minPrice":     bson.M{"$min": "$price"},
			"maxPrice":     bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
}

// OrderStatsByStatus computes order count, revenue and average order
// value per status.
func OrderStatsByStatus() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":               "$status",
			"orderCount":        bson.M{"$sum": 1},
			"totalRevenue":      bson.M{"$sum": "$totalAmount"},
			"averageOrderValue": bson.M{"$avg": "$totalAmount"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "orderCount", Value: -1}}}},
	}
}

// OrdersByPaymentMethod groups per payment method and projects the share
// of the default 100-order dataset each method holds.
func OrdersByPaymentMethod() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":          "$paymentMethod",
			"orderCount":   bson.M{"$sum": 1},
			"totalRevenue": bson.M{"$sum": "$totalAmount"},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "paymentMethod", Value: "$_id"},
			{Key: "orderCount", Value: 1},
			{Key: "totalRevenue", Value: 1},
			{Key: "_id", Value: 0},
			{Key: "percentageOfTotal", Value: bson.M{
				"$multiply": bson.A{
					bson.M{"$divide": bson.A{"$orderCount", 100}},
					100,
				},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalRevenue", Value: 1}}}},
	}
}

// RunGrouping executes the group/aggregate examples and prints each
// result set.
func RunGrouping(ctx context.Context, r Runner) error {
	byCategory, err := r.Aggregate(ctx, database.CollProducts, ProductsByCategory())
	if err != nil {
		return err
	}
	printSection("1. Product Count by Category")
	printDocs(byCategory)

	byStatus, err := r.Aggregate(ctx, database.CollOrders, OrderStatsByStatus())
	if err != nil {
		return err
	}
	printSection("2. Order Statistics")
	printDocs(byStatus)

	byPayment, err := r.Aggregate(ctx, database.CollOrders, OrdersByPaymentMethod())
	if err != nil {
		return err
	}
	printSection("3. Orders by Payment Method")
	printDocs(byPayment)

	return nil
}
