package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rabinkaspal/mongodb-aggregation/errs"
)

// Collection names assumed by every script.
const (
	CollProducts  = "products"
	CollCustomers = "customers"
	CollOrders    = "orders"
	CollReviews   = "reviews"
)

const defaultDatabase = "aggregation_demo"

// ConnectFromEnv connects using MONGODB_URI and MONGODB_DB. A missing
// URI is a fatal startup condition for every script.
func ConnectFromEnv(ctx context.Context) (*Store, error) {
	name := os.Getenv("MONGODB_DB")
	if name == "" {
		name = defaultDatabase
	}
	return Connect(ctx, os.Getenv("MONGODB_URI"), name)
}

// Store is the connection handle passed to the seeders and the query
// catalog. One Store per process; Close it when the script is done.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client for the given URI, pings it, and ensures the
// unique email index on customers.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: MONGODB_URI is empty", errs.ErrConnection)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrConnection, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrConnection, err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	log.Println("Connected to MongoDB")
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.Customers().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create customers.email index: %w", err)
	}
	return nil
}

// Close disconnects the client. Safe to defer right after Connect.
func (s *Store) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		log.Println("Failed to disconnect MongoDB:", err)
		return
	}
	log.Println("Disconnected from MongoDB")
}

func (s *Store) Products() *mongo.Collection  { return s.db.Collection(CollProducts) }
func (s *Store) Customers() *mongo.Collection { return s.db.Collection(CollCustomers) }
func (s *Store) Orders() *mongo.Collection    { return s.db.Collection(CollOrders) }
func (s *Store) Reviews() *mongo.Collection   { return s.db.Collection(CollReviews) }

// Collection returns a handle by name for callers working off the
// fixed four.
func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Aggregate runs a pipeline against the named collection and returns the
// full result set. Every script reads complete result sets, so there is no
// streaming path.
func (s *Store) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cursor, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate %s: %v", errs.ErrQuery, collection, err)
	}
	defer cursor.Close(ctx)

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("%w: aggregate %s: %v", errs.ErrQuery, collection, err)
	}
	return results, nil
}
