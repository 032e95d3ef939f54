package aggregations

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rabinkaspal/mongodb-aggregation/database"
)

// ExpensiveElectronics keeps electronics products priced over 500.
func ExpensiveElectronics() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"category": "Electronics",
			"price":    bson.M{"$gt": 500},
		}}},
	}
}

// TopStockedProducts returns the five products with the highest stock
// level above 50.
func TopStockedProducts() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"stockLevel": bson.M{"$gt": 50}}}},
		{{Key: "$sort", Value: bson.D{{Key: "stockLevel", Value: -1}}}},
		{{Key: "$limit", Value: 5}},
	}
}

// ProductSummary reshapes products into a short summary with a computed
// in-stock flag. The limit runs before the sort, as in the original
// example, so it truncates in natural store order.
func ProductSummary() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "productName", Value: "$name"},
			{Key: "productPrice", Value: "$price"},
			{Key: "inStock", Value: bson.M{"$gt": bson.A{"$stockLevel", 0}}},
		}}},
		{{Key: "$limit", Value: 5}},
		{{Key: "$sort", Value: bson.D{{Key: "productPrice", Value: -1}}}},
	}
}

// RunBasic executes the filter/sort/project examples and prints each
// result set.
func RunBasic(ctx context.Context, r Runner) error {
	expensive, err := r.Aggregate(ctx, database.CollProducts, ExpensiveElectronics())
	if err != nil {
		return err
	}
	printSection("Expensive Electronics")
	fmt.Printf("Found %d expensive electronics products\n", len(expensive))
	printDocs(pick(expensive, "name", "price", "stockLevel"))

	topStocked, err := r.Aggregate(ctx, database.CollProducts, TopStockedProducts())
	if err != nil {
		return err
	}
	printSection("High Stock Products")
	printDocs(pick(topStocked, "name", "category", "stockLevel"))

	summary, err := r.Aggregate(ctx, database.CollProducts, ProductSummary())
	if err != nil {
		return err
	}
	printSection("Product Summary")
	printDocs(summary)

	return nil
}
