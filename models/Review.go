package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rabinkaspal/mongodb-aggregation/errs"
)

type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Product   primitive.ObjectID `json:"product" bson:"product"`
	Customer  primitive.ObjectID `json:"customer" bson:"customer"`
	Rating    int                `json:"rating" bson:"rating"`
	Title     string             `json:"title" bson:"title"`
	Comment   string             `json:"comment" bson:"comment"`
	Helpful   int                `json:"helpful" bson:"helpful"`
	Verified  bool               `json:"verified" bson:"verified"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

func (r Review) Validate() error {
	if r.Product.IsZero() {
		return errs.Invalid("product", "required")
	}
	if r.Customer.IsZero() {
		return errs.Invalid("customer", "required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return errs.Invalid("rating", "must be between 1 and 5")
	}
	if r.Title == "" {
		return errs.Invalid("title", "required")
	}
	if r.Comment == "" {
		return errs.Invalid("comment", "required")
	}
	if r.Helpful < 0 {
		return errs.Invalid("helpful", "must not be negative")
	}
	return nil
}
