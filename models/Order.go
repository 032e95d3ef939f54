package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rabinkaspal/mongodb-aggregation/errs"
)

// Order statuses. Only the creator maintains the totalAmount invariant;
// the store does not check it.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

const (
	PaymentCreditCard = "credit_card"
	PaymentDebitCard  = "debit_card"
	PaymentPaypal     = "paypal"
	PaymentCash       = "cash"
)

var (
	OrderStatuses  = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
	PaymentMethods = []string{PaymentCreditCard, PaymentDebitCard, PaymentPaypal, PaymentCash}
)

type OrderItem struct {
	Product  primitive.ObjectID `json:"product" bson:"product"`
	Quantity int                `json:"quantity" bson:"quantity"`
	Price    float64            `json:"price" bson:"price"`
}

type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Customer        primitive.ObjectID `json:"customer" bson:"customer"`
	Items           []OrderItem        `json:"items" bson:"items"`
	TotalAmount     float64            `json:"totalAmount" bson:"totalAmount"`
	Status          string             `json:"status" bson:"status"`
	PaymentMethod   string             `json:"paymentMethod" bson:"paymentMethod"`
	ShippingAddress Address            `json:"shippingAddress" bson:"shippingAddress"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (o Order) Validate() error {
	if o.Customer.IsZero() {
		return errs.Invalid("customer", "required")
	}
	if len(o.Items) == 0 {
		return errs.Invalid("items", "required")
	}
	for _, item := range o.Items {
		if item.Product.IsZero() {
			return errs.Invalid("items.product", "required")
		}
		if item.Quantity < 1 {
			return errs.Invalid("items.quantity", "must be at least 1")
		}
		if item.Price <= 0 {
			return errs.Invalid("items.price", "must be positive")
		}
	}
	if !contains(OrderStatuses, o.Status) {
		return errs.Invalid("status", "not a valid order status")
	}
	if !contains(PaymentMethods, o.PaymentMethod) {
		return errs.Invalid("paymentMethod", "not a valid payment method")
	}
	if err := o.ShippingAddress.Validate(); err != nil {
		return err
	}
	if math.Abs(o.TotalAmount-o.SumItems()) > 1e-9 {
		return errs.Invalid("totalAmount", "does not match the sum of item subtotals")
	}
	return nil
}

// SumItems returns the exact sum of quantity times price over all items.
func (o Order) SumItems() float64 {
	var total float64
	for _, item := range o.Items {
		total += float64(item.Quantity) * item.Price
	}
	return total
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
