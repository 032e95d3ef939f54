package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestBuildProducts(t *testing.T) {
	products := BuildProducts(testRand(), 25)
	require.Len(t, products, 25)

	seen := make(map[primitive.ObjectID]bool)
	for _, p := range products {
		require.NoError(t, p.Validate())
		assert.False(t, seen[p.ID], "product ids must be unique")
		seen[p.ID] = true

		assert.GreaterOrEqual(t, p.Price, 10.0)
		assert.Less(t, p.Price, 1010.0)
		assert.GreaterOrEqual(t, p.StockLevel, 0)
		assert.Less(t, p.StockLevel, 100)
		assert.GreaterOrEqual(t, p.Rating, 1.0)
		assert.Less(t, p.Rating, 5.0)
		assert.Contains(t, categories, p.Category)
		assert.Contains(t, manufacturers, p.Manufacturer)

		dims, ok := p.Features["dimensions"].(bson.M)
		require.True(t, ok)
		for _, axis := range []string{"width", "height", "depth"} {
			v, ok := dims[axis].(int)
			require.True(t, ok)
			assert.GreaterOrEqual(t, v, 5)
			assert.Less(t, v, 15)
		}
	}
}

func TestBuildCustomersEmailsDistinct(t *testing.T) {
	customers := BuildCustomers(testRand(), 20)
	require.Len(t, customers, 20)

	emails := make(map[string]bool)
	for i, c := range customers {
		require.NoError(t, c.Validate())
		assert.False(t, emails[c.Email], "emails must be pairwise distinct")
		emails[c.Email] = true
		assert.Equal(t, fmt.Sprintf("customer%d@example.com", i+1), c.Email)
		assert.Equal(t, fmt.Sprintf("First%d", i+1), c.FirstName)
		assert.Equal(t, fmt.Sprintf("Last%d", i+1), c.LastName)

		assert.GreaterOrEqual(t, c.DateOfBirth.Year(), 1980)
		assert.Less(t, c.DateOfBirth.Year(), 2010)
		assert.GreaterOrEqual(t, c.MemberSince.Year(), 2020)
		assert.Less(t, c.MemberSince.Year(), 2023)

		// City and state come as a matching pair.
		pair := -1
		for j, city := range cities {
			if city == c.Address.City {
				pair = j
				break
			}
		}
		require.GreaterOrEqual(t, pair, 0)
		assert.Equal(t, states[pair], c.Address.State, "customer %d", i)
	}
}

func TestBuildOrdersTotalInvariant(t *testing.T) {
	r := testRand()
	products := BuildProducts(r, 10)
	customers := BuildCustomers(r, 5)
	orders := BuildOrders(r, products, customers, 50)
	require.Len(t, orders, 50)

	addressByCustomer := make(map[primitive.ObjectID]string)
	for _, c := range customers {
		addressByCustomer[c.ID] = c.Address.Street
	}

	for i, o := range orders {
		require.NoError(t, o.Validate(), "order %d", i)
		assert.Equal(t, o.SumItems(), o.TotalAmount, "order %d total must equal the sum of item subtotals", i)
		assert.GreaterOrEqual(t, len(o.Items), 1)
		assert.LessOrEqual(t, len(o.Items), 5)
		for _, item := range o.Items {
			assert.GreaterOrEqual(t, item.Quantity, 1)
			assert.LessOrEqual(t, item.Quantity, 3)
		}
		// Shipping address is a snapshot of the chosen customer's address.
		assert.Equal(t, addressByCustomer[o.Customer], o.ShippingAddress.Street)
	}
}

func TestBuildReviewsCommentTiers(t *testing.T) {
	r := testRand()
	products := BuildProducts(r, 10)
	customers := BuildCustomers(r, 5)
	reviews := BuildReviews(r, products, customers, 100)
	require.Len(t, reviews, 100)

	for i, rv := range reviews {
		require.NoError(t, rv.Validate(), "review %d", i)
		switch {
		case rv.Rating >= 4:
			assert.True(t, strings.HasSuffix(rv.Comment, "Highly recommended!"), "review %d: %q", i, rv.Comment)
		case rv.Rating == 3:
			assert.True(t, strings.HasSuffix(rv.Comment, "Decent product."), "review %d: %q", i, rv.Comment)
		default:
			assert.True(t, strings.HasSuffix(rv.Comment, "Could be better."), "review %d: %q", i, rv.Comment)
		}
	}
}
