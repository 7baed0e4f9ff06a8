package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/pricing"
)

type variantDocument struct {
	VariantID       string   `bson:"variantid"`
	Size            string   `bson:"size"`
	Unit            string   `bson:"unit"`
	Price           float64  `bson:"price"`
	DiscountedPrice *float64 `bson:"discounted_price,omitempty"`
	Stock           int      `bson:"stock"`
	Available       bool     `bson:"available"`
}

type productDocument struct {
	ProductID string            `bson:"productid"`
	Name      string            `bson:"name"`
	Category  string            `bson:"category"`
	Image     string            `bson:"image"`
	Variants  []variantDocument `bson:"variants"`
}

type MongoReader struct {
	collection *mongo.Collection
}

func NewMongoReader(db *mongo.Database) *MongoReader {
	return &MongoReader{collection: db.Collection("products")}
}

func (m *MongoReader) GetProduct(ctx context.Context, id string) (*Product, error) {
	var doc productDocument
	err := m.collection.FindOne(ctx, bson.M{"productid": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.toProduct(), nil
}

func (d productDocument) toProduct() *Product {
	p := &Product{
		ID:       d.ProductID,
		Name:     d.Name,
		Category: d.Category,
		Image:    d.Image,
		Variants: make([]Variant, 0, len(d.Variants)),
	}
	for _, v := range d.Variants {
		variant := Variant{
			ID:            v.VariantID,
			Size:          v.Size,
			Unit:          v.Unit,
			Price:         pricing.FromFloat(v.Price),
			StockQuantity: max(v.Stock, 0),
			Available:     v.Available,
		}
		if v.DiscountedPrice != nil {
			dp := pricing.FromFloat(*v.DiscountedPrice)
			variant.DiscountedPrice = &dp
		}
		p.Variants = append(p.Variants, variant)
	}
	return p
}
