package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rabinkaspal/mongodb-aggregation/errs"
)

type Product struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Description  string             `json:"description" bson:"description"`
	Price        float64            `json:"price" bson:"price"`
	Category     string             `json:"category" bson:"category"`
	Tags         []string           `json:"tags" bson:"tags"`
	Manufacturer string             `json:"manufacturer" bson:"manufacturer"`
	StockLevel   int                `json:"stockLevel" bson:"stockLevel"`
	Rating       float64            `json:"rating" bson:"rating"`
	Features     bson.M             `json:"features" bson:"features"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Validate checks the constraints the store itself does not enforce.
// Features stays an open bson.M so pipelines can reach arbitrary nested paths.
func (p Product) Validate() error {
	if p.Name == "" {
		return errs.Invalid("name", "required")
	}
	if p.Description == "" {
		return errs.Invalid("description", "required")
	}
	if p.Price <= 0 {
		return errs.Invalid("price", "must be positive")
	}
	if p.Category == "" {
		return errs.Invalid("category", "required")
	}
	if p.Manufacturer == "" {
		return errs.Invalid("manufacturer", "required")
	}
	if p.StockLevel < 0 {
		return errs.Invalid("stockLevel", "must not be negative")
	}
	if p.Rating < 0 || p.Rating > 5 {
		return errs.Invalid("rating", "must be between 0 and 5")
	}
	return nil
}
