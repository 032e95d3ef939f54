package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rabinkaspal/mongodb-aggregation/errs"
)

func validAddress() Address {
	return Address{
		Street:  "1000 Main St",
		City:    "New York",
		State:   "NY",
		ZipCode: "10000",
		Country: "USA",
	}
}

func validProduct() Product {
	return Product{
		Name:         "Product 1",
		Description:  "Description for product 1",
		Price:        199,
		Category:     "Electronics",
		Manufacturer: "TechCorp",
		StockLevel:   10,
		Rating:       4.2,
	}
}

func TestProductValidate(t *testing.T) {
	require.NoError(t, validProduct().Validate())

	p := validProduct()
	p.Name = ""
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Contains(t, err.Error(), "name")

	p = validProduct()
	p.Price = 0
	assert.Error(t, p.Validate())

	p = validProduct()
	p.StockLevel = -1
	assert.Error(t, p.Validate())

	p = validProduct()
	p.Rating = 5.5
	assert.Error(t, p.Validate())
}

func TestCustomerValidate(t *testing.T) {
	c := Customer{
		FirstName: "First1",
		LastName:  "Last1",
		Email:     "customer1@example.com",
		Address:   validAddress(),
	}
	require.NoError(t, c.Validate())

	c.Email = ""
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")

	c.Email = "customer1@example.com"
	c.Address.City = ""
	assert.Error(t, c.Validate())
}

func TestOrderValidate(t *testing.T) {
	productID := primitive.NewObjectID()
	order := Order{
		Customer: primitive.NewObjectID(),
		Items: []OrderItem{
			{Product: productID, Quantity: 2, Price: 50},
			{Product: productID, Quantity: 1, Price: 25},
		},
		TotalAmount:     125,
		Status:          StatusPending,
		PaymentMethod:   PaymentPaypal,
		ShippingAddress: validAddress(),
		CreatedAt:       time.Now(),
	}
	require.NoError(t, order.Validate())

	bad := order
	bad.Status = "returned"
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")

	bad = order
	bad.PaymentMethod = "bitcoin"
	assert.Error(t, bad.Validate())

	bad = order
	bad.TotalAmount = 999
	err = bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "totalAmount")

	bad = order
	bad.Items = []OrderItem{{Product: productID, Quantity: 0, Price: 50}}
	assert.Error(t, bad.Validate())
}

func TestReviewValidate(t *testing.T) {
	review := Review{
		Product:  primitive.NewObjectID(),
		Customer: primitive.NewObjectID(),
		Rating:   4,
		Title:    "Review 1 for Product 1",
		Comment:  "This is review comment 1 for Product 1. Highly recommended!",
	}
	require.NoError(t, review.Validate())

	for _, rating := range []int{0, 6} {
		bad := review
		bad.Rating = rating
		err := bad.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rating")
	}

	bad := review
	bad.Product = primitive.ObjectID{}
	assert.Error(t, bad.Validate())
}
