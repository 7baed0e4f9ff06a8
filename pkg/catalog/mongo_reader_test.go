package catalog

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestProductDocument_ToProduct(t *testing.T) {
	discounted := 80.0
	doc := productDocument{
		ProductID: "p-1",
		Name:      "Alphonso Mango",
		Category:  "fruits",
		Variants: []variantDocument{
			{VariantID: "v-1", Size: "1", Unit: "kg", Price: 100, DiscountedPrice: &discounted, Stock: 12, Available: true},
			{VariantID: "v-2", Size: "5", Unit: "kg", Price: math.NaN(), Stock: -3},
		},
	}

	p := doc.toProduct()
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "p-1", p.ID)
	assert.True(t, p.Variants[0].Price.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, p.Variants[0].DiscountedPrice)
	assert.True(t, p.Variants[0].DiscountedPrice.Equal(decimal.NewFromInt(80)))

	assert.True(t, p.Variants[1].Price.IsZero(), "NaN price must decode as zero")
	assert.Equal(t, 0, p.Variants[1].StockQuantity)
}

func TestResolve(t *testing.T) {
	reader := fakeReader{products: map[string]*Product{
		"p-1": {ID: "p-1", Variants: []Variant{{ID: "v-1", Price: decimal.NewFromInt(10)}}},
	}}

	p, v, err := Resolve(context.Background(), reader, "p-1", "v-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "v-1", v.ID)

	_, _, err = Resolve(context.Background(), reader, "p-1", "missing")
	assert.ErrorIs(t, err, ErrVariantNotFound)

	_, _, err = Resolve(context.Background(), reader, "missing", "v-1")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

type fakeReader struct {
	products map[string]*Product
}

func (f fakeReader) GetProduct(_ context.Context, id string) (*Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func TestMongoReader_GetProduct(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	defer func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}()

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	db := client.Database("catalogdb")
	_, err = db.Collection("products").InsertOne(ctx, productDocument{
		ProductID: "p-7",
		Name:      "Basmati Rice",
		Category:  "grains",
		Variants: []variantDocument{
			{VariantID: "v-5kg", Size: "5", Unit: "kg", Price: 649.5, Stock: 40, Available: true},
		},
	})
	require.NoError(t, err)

	reader := NewMongoReader(db)
	p, err := reader.GetProduct(ctx, "p-7")
	require.NoError(t, err)
	assert.Equal(t, "Basmati Rice", p.Name)
	v, ok := p.Variant("v-5kg")
	require.True(t, ok)
	assert.True(t, v.Price.Equal(decimal.RequireFromString("649.5")))

	_, err = reader.GetProduct(ctx, "unknown")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
