package aggregations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rabinkaspal/mongodb-aggregation/database"
)

// DeliveredOrdersWithCustomers joins delivered orders to their customer
// record and projects a flat view with the customer's full name.
func DeliveredOrdersWithCustomers() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": "delivered"}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.CollCustomers,
			"localField":   "customer",
			"foreignField": "_id",
			"as":           "customerDetails",
		}}},
		{{Key: "$unwind", Value: "$customerDetails"}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "orderDate", Value: "$createdAt"},
			{Key: "totalAmount", Value: 1},
			{Key: "customerName", Value: bson.M{
				"$concat": bson.A{"$customerDetails.firstName", " ", "$customerDetails.lastName"},
			}},
			{Key: "customerEmail", Value: "$customerDetails.email"},
			{Key: "shippingCity", Value: "$shippingAddress.city"},
			{Key: "status", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "orderDate", Value: -1}}}},
		{{Key: "$limit", Value: 5}},
	}
}

// ElectronicsWithReviews attaches reviews to electronics products and
// projects review count, average rating and the first three reviews.
// Products without reviews are filtered out after the join.
func ElectronicsWithReviews() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"category": "Electronics"}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.CollReviews,
			"localField":   "_id",
			"foreignField": "product",
			"as":           "reviews",
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "name", Value: 1},
			{Key: "price", Value: 1},
			{Key: "reviewCount", Value: bson.M{"$size": "$reviews"}},
			{Key: "averageRating", Value: bson.M{"$avg": "$reviews.rating"}},
			{Key: "reviews", Value: bson.M{
				"$map": bson.M{
					"input": bson.M{"$slice": bson.A{"$reviews", 0, 3}},
					"as":    "review",
					"in": bson.M{
						"title":   "$$review.title",
						"rating":  "$$review.rating",
						"comment": "$$review.comment",
					},
				},
			}},
		}}},
		{{Key: "$match", Value: bson.M{"reviewCount": bson.M{"$gt": 0}}}},
		{{Key: "$limit", Value: 3}},
	}
}

// PopularFeatures computes the volume of each product from its nested
// dimensions, keeps the bulky ones and groups them by color.
func PopularFeatures() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$project", Value: bson.D{
			{Key: "name", Value: 1},
			{Key: "category", Value: 1},
			{Key: "color", Value: "$features.color"},
			{Key: "weight", Value: "$features.weight"},
			{Key: "dimensions", Value: "$features.dimensions"},
			{Key: "volume", Value: bson.M{
				"$multiply": bson.A{
					"$features.dimensions.depth",
					"$features.dimensions.width",
					"$features.dimensions.height",
				},
			}},
		}}},
		{{Key: "$match", Value: bson.M{"volume": bson.M{"$gt": 100}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$color",
			"averageWeight": bson.M{"$avg": "$weight"},
			"totalVolume":   bson.M{"$sum": "$volume"},
			"productCount":  bson.M{"$sum": 1},
			"products":      bson.M{"$push": bson.M{"name": "$name", "category": "$category"}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "productCount", Value: -1}}}},
	}
}

// RunIntermediate executes the join/unwind examples and prints each
// result set.
func RunIntermediate(ctx context.Context, r Runner) error {
	orders, err := r.Aggregate(ctx, database.CollOrders, DeliveredOrdersWithCustomers())
	if err != nil {
		return err
	}
	printSection("1. Orders with Customer Details")
	printDocs(orders)

	reviewed, err := r.Aggregate(ctx, database.CollProducts, ElectronicsWithReviews())
	if err != nil {
		return err
	}
	printSection("Products with Reviews")
	printDocs(reviewed)

	features, err := r.Aggregate(ctx, database.CollProducts, PopularFeatures())
	if err != nil {
		return err
	}
	printSection("3. Popular Product Features")
	printDocs(features)

	return nil
}
