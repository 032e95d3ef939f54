package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rabinkaspal/mongodb-aggregation/errs"
)

type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	ZipCode string `json:"zipCode" bson:"zipCode"`
	Country string `json:"country" bson:"country"`
}

func (a Address) Validate() error {
	if a.Street == "" {
		return errs.Invalid("address.street", "required")
	}
	if a.City == "" {
		return errs.Invalid("address.city", "required")
	}
	if a.State == "" {
		return errs.Invalid("address.state", "required")
	}
	if a.ZipCode == "" {
		return errs.Invalid("address.zipCode", "required")
	}
	if a.Country == "" {
		return errs.Invalid("address.country", "required")
	}
	return nil
}

// Customer email uniqueness is enforced by a unique index, see database.Connect.
type Customer struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName     string             `json:"firstName" bson:"firstName"`
	LastName      string             `json:"lastName" bson:"lastName"`
	Email         string             `json:"email" bson:"email"`
	Phone         string             `json:"phone" bson:"phone"`
	Address       Address            `json:"address" bson:"address"`
	DateOfBirth   time.Time          `json:"dateOfBirth" bson:"dateOfBirth"`
	MemberSince   time.Time          `json:"memberSince" bson:"memberSince"`
	LoyaltyPoints int                `json:"loyaltyPoints" bson:"loyaltyPoints"`
	Preferences   bson.M             `json:"preferences" bson:"preferences"`
}

func (c Customer) Validate() error {
	if c.FirstName == "" {
		return errs.Invalid("firstName", "required")
	}
	if c.LastName == "" {
		return errs.Invalid("lastName", "required")
	}
	if c.Email == "" {
		return errs.Invalid("email", "required")
	}
	if err := c.Address.Validate(); err != nil {
		return err
	}
	if c.LoyaltyPoints < 0 {
		return errs.Invalid("loyaltyPoints", "must not be negative")
	}
	return nil
}
