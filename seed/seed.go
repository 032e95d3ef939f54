// Package seed populates the store with a randomized but internally
// consistent dataset spanning products, customers, orders and reviews.
// The Build functions are pure so the generated shapes can be checked
// without a live server; the Generate functions insert what they build.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/rabinkaspal/mongodb-aggregation/database"
	"github.com/rabinkaspal/mongodb-aggregation/errs"
	"github.com/rabinkaspal/mongodb-aggregation/models"
)

// Default dataset sizes, matching what the aggregation scripts expect to
// have enough variety to exercise every pipeline.
const (
	DefaultProducts  = 50
	DefaultCustomers = 20
	DefaultOrders    = 100
	DefaultReviews   = 200
)

var (
	categories    = []string{"Electronics", "Books", "Clothing", "Home & Kitchen", "Sports"}
	manufacturers = []string{"TechCorp", "FashionBrand", "PublishingHouse", "HomeGoods", "SportGear"}
	colors        = []string{"red", "blue", "green", "black"}
	tagPool       = []string{"tag1", "tag2", "tag3"}

	// City and state are drawn as a matching pair.
	cities = []string{"New York", "Los Angeles", "Chicago", "Houston", "Phoenix"}
	states = []string{"NY", "CA", "IL", "TX", "AZ"}
)

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// randomDate picks a date in [startYear, startYear+spanYears). Days cap at
// 28 so every month is valid.
func randomDate(r *rand.Rand, startYear, spanYears int) time.Time {
	return time.Date(
		startYear+r.Intn(spanYears),
		time.Month(r.Intn(12)+1),
		r.Intn(28)+1,
		0, 0, 0, 0, time.UTC,
	)
}

// BuildProducts returns count products with ids already assigned, so
// order and review builders can reference them before any insert happens.
func BuildProducts(r *rand.Rand, count int) []models.Product {
	now := time.Now()
	products := make([]models.Product, 0, count)
	for i := 0; i < count; i++ {
		products = append(products, models.Product{
			ID:           primitive.NewObjectID(),
			Name:         fmt.Sprintf("Product %d", i+1),
			Description:  fmt.Sprintf("Description for product %d", i+1),
			Price:        float64(r.Intn(1000) + 10),
			Category:     categories[r.Intn(len(categories))],
			Tags:         tagPool[:r.Intn(len(tagPool))+1],
			Manufacturer: manufacturers[r.Intn(len(manufacturers))],
			StockLevel:   r.Intn(100),
			Rating:       r.Float64()*4 + 1,
			Features: bson.M{
				"color":  colors[r.Intn(len(colors))],
				"weight": r.Intn(10) + 1,
				"dimensions": bson.M{
					"width":  r.Intn(10) + 5,
					"height": r.Intn(10) + 5,
					"depth":  r.Intn(10) + 5,
				},
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return products
}

// BuildCustomers uses deterministic name and email patterns so emails are
// pairwise distinct, which the unique index on customers.email demands.
func BuildCustomers(r *rand.Rand, count int) []models.Customer {
	customers := make([]models.Customer, 0, count)
	for i := 0; i < count; i++ {
		pair := r.Intn(len(cities))
		customers = append(customers, models.Customer{
			ID:        primitive.NewObjectID(),
			FirstName: fmt.Sprintf("First%d", i+1),
			LastName:  fmt.Sprintf("Last%d", i+1),
			Email:     fmt.Sprintf("customer%d@example.com", i+1),
			Phone:     fmt.Sprintf("555-%d", 100+i),
			Address: models.Address{
				Street:  fmt.Sprintf("%d Main St", 1000+i),
				City:    cities[pair],
				State:   states[pair],
				ZipCode: fmt.Sprintf("%d", 10000+i),
				Country: "USA",
			},
			DateOfBirth:   randomDate(r, 1980, 30),
			MemberSince:   randomDate(r, 2020, 3),
			LoyaltyPoints: r.Intn(1000),
			Preferences: bson.M{
				"favoriteCategories": []string{"Electronics", "Clothing", "Books"}[:r.Intn(3)+1],
				"communication": bson.M{
					"email": r.Float64() > 0.5,
					"sms":   r.Float64() > 0.5,
				},
			},
		})
	}
	return customers
}

// BuildOrders computes totalAmount as the exact sum of item subtotals.
// Nothing downstream re-checks it, so this is where the invariant holds
// or doesn't. The shipping address is a snapshot of the customer's
// address at build time.
func BuildOrders(r *rand.Rand, products []models.Product, customers []models.Customer, count int) []models.Order {
	orders := make([]models.Order, 0, count)
	for i := 0; i < count; i++ {
		itemCount := r.Intn(5) + 1
		items := make([]models.OrderItem, 0, itemCount)
		var total float64
		for j := 0; j < itemCount; j++ {
			product := products[r.Intn(len(products))]
			quantity := r.Intn(3) + 1
			items = append(items, models.OrderItem{
				Product:  product.ID,
				Quantity: quantity,
				Price:    product.Price,
			})
			total += float64(quantity) * product.Price
		}

		customer := customers[r.Intn(len(customers))]
		created := time.Now().Add(-time.Duration(r.Intn(30*24)) * time.Hour)
		orders = append(orders, models.Order{
			ID:              primitive.NewObjectID(),
			Customer:        customer.ID,
			Items:           items,
			TotalAmount:     total,
			Status:          models.OrderStatuses[r.Intn(len(models.OrderStatuses))],
			PaymentMethod:   models.PaymentMethods[r.Intn(len(models.PaymentMethods))],
			ShippingAddress: customer.Address,
			CreatedAt:       created,
			UpdatedAt:       created,
		})
	}
	return orders
}

// BuildReviews varies the comment text by rating tier and marks roughly
// 70% of reviews as verified.
func BuildReviews(r *rand.Rand, products []models.Product, customers []models.Customer, count int) []models.Review {
	reviews := make([]models.Review, 0, count)
	for i := 0; i < count; i++ {
		product := products[r.Intn(len(products))]
		customer := customers[r.Intn(len(customers))]
		rating := r.Intn(5) + 1

		sentiment := "Could be better."
		switch {
		case rating >= 4:
			sentiment = "Highly recommended!"
		case rating == 3:
			sentiment = "Decent product."
		}

		reviews = append(reviews, models.Review{
			ID:        primitive.NewObjectID(),
			Product:   product.ID,
			Customer:  customer.ID,
			Rating:    rating,
			Title:     fmt.Sprintf("Review %d for %s", i+1, product.Name),
			Comment:   fmt.Sprintf("This is review comment %d for %s. %s", i+1, product.Name, sentiment),
			Helpful:   r.Intn(50),
			Verified:  r.Float64() > 0.3,
			CreatedAt: time.Now().Add(-time.Duration(r.Intn(60*24)) * time.Hour),
		})
	}
	return reviews
}

// GenerateProducts builds, validates and inserts count products, returning
// the inserted records. Later generators depend on the returned ids.
func GenerateProducts(ctx context.Context, store *database.Store, count int) ([]models.Product, error) {
	products := BuildProducts(newRand(), count)
	docs := make([]interface{}, 0, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("product %q: %w", p.Name, err)
		}
		docs = append(docs, p)
	}
	if _, err := store.Products().InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert products: %w", errs.FromMongo(err))
	}
	log.Printf("%d products created", len(products))
	return products, nil
}

func GenerateCustomers(ctx context.Context, store *database.Store, count int) ([]models.Customer, error) {
	customers := BuildCustomers(newRand(), count)
	docs := make([]interface{}, 0, len(customers))
	for _, c := range customers {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("customer %q: %w", c.Email, err)
		}
		docs = append(docs, c)
	}
	if _, err := store.Customers().InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert customers: %w", errs.FromMongo(err))
	}
	log.Printf("%d customers created", len(customers))
	return customers, nil
}

func GenerateOrders(ctx context.Context, store *database.Store, products []models.Product, customers []models.Customer, count int) ([]models.Order, error) {
	orders := BuildOrders(newRand(), products, customers, count)
	docs := make([]interface{}, 0, len(orders))
	for i, o := range orders {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("order %d: %w", i+1, err)
		}
		docs = append(docs, o)
	}
	if _, err := store.Orders().InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert orders: %w", errs.FromMongo(err))
	}
	log.Printf("%d orders created", len(orders))
	return orders, nil
}

func GenerateReviews(ctx context.Context, store *database.Store, products []models.Product, customers []models.Customer, count int) ([]models.Review, error) {
	reviews := BuildReviews(newRand(), products, customers, count)
	docs := make([]interface{}, 0, len(reviews))
	for i, rv := range reviews {
		if err := rv.Validate(); err != nil {
			return nil, fmt.Errorf("review %d: %w", i+1, err)
		}
		docs = append(docs, rv)
	}
	if _, err := store.Reviews().InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert reviews: %w", errs.FromMongo(err))
	}
	log.Printf("%d reviews created", len(reviews))
	return reviews, nil
}

// Database wipes all four collections and reseeds them in dependency
// order. Each run fully replaces the prior data. The deletes are
// independent and run in parallel; a failed insert aborts the run and
// leaves whatever made it in, which is acceptable for a one-shot batch
// tool.
func Database(ctx context.Context, store *database.Store) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range []string{
		database.CollProducts,
		database.CollCustomers,
		database.CollOrders,
		database.CollReviews,
	} {
		name := name
		g.Go(func() error {
			if _, err := store.Collection(name).DeleteMany(gctx, bson.M{}); err != nil {
				return fmt.Errorf("clear %s: %w", name, errs.FromMongo(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	products, err := GenerateProducts(ctx, store, DefaultProducts)
	if err != nil {
		return err
	}
	customers, err := GenerateCustomers(ctx, store, DefaultCustomers)
	if err != nil {
		return err
	}
	if _, err := GenerateOrders(ctx, store, products, customers, DefaultOrders); err != nil {
		return err
	}
	if _, err := GenerateReviews(ctx, store, products, customers, DefaultReviews); err != nil {
		return err
	}

	log.Println("Database seeded successfully!")
	return nil
}
