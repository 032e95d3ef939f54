// Package aggregations is the query catalog: a fixed set of pipelines
// over the seeded collections, each expressed as data and executed
// through a Runner. The catalog never mutates the store.
package aggregations

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Runner executes one pipeline and returns the full result set. Both
// database.Store and memstore.DB satisfy it, so the same pipeline data
// runs against a live server or in-memory fixtures.
type Runner interface {
	Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.M, error)
}

func printSection(title string) {
	fmt.Printf("\n=== %s ===\n", title)
}

func printDocs(docs interface{}) {
	out, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", docs)
		return
	}
	fmt.Println(string(out))
}

// pick reduces each document to the named fields, for the examples that
// print a summary instead of whole records.
func pick(docs []bson.M, fields ...string) []bson.M {
	out := make([]bson.M, 0, len(docs))
	for _, doc := range docs {
		slim := bson.M{}
		for _, f := range fields {
			if v, ok := doc[f]; ok {
				slim[f] = v
			}
		}
		out = append(out, slim)
	}
	return out
}
