package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/cart"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/catalog"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/pricing"
)

var ErrCartNotFound = errors.New("cart not found")

// lineDocument stores amounts as decimal strings. Older documents only carry
// product_id, quantity and added_at; missing fields decode as zero values and the
// cart is normalized by the service before use.
type lineDocument struct {
	LineID          string    `bson:"line_id"`
	ProductID       string    `bson:"product_id"`
	ProductName     string    `bson:"product_name,omitempty"`
	Category        string    `bson:"category,omitempty"`
	Image           string    `bson:"image,omitempty"`
	VariantID       string    `bson:"variant_id"`
	Size            string    `bson:"size,omitempty"`
	Unit            string    `bson:"unit,omitempty"`
	Price           string    `bson:"price"`
	DiscountedPrice string    `bson:"discounted_price,omitempty"`
	Stock           int       `bson:"stock,omitempty"`
	Available       bool      `bson:"available"`
	Quantity        int       `bson:"quantity"`
	AddedAt         time.Time `bson:"added_at"`
}

type cartDocument struct {
	UserID         string         `bson:"user_id"`
	Items          []lineDocument `bson:"items"`
	Subtotal       string         `bson:"subtotal,omitempty"`
	DeliveryCharge string         `bson:"delivery_charge,omitempty"`
	Total          string         `bson:"total,omitempty"`
	ItemCount      int            `bson:"item_count,omitempty"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoRepository) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	var doc cartDocument

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	c := doc.toCart()
	return &c, nil
}

func (m *mongoRepository) SaveCart(ctx context.Context, userID string, c cart.Cart) error {
	now := time.Now()
	doc := fromCart(userID, c)

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"items":           doc.Items,
			"subtotal":        doc.Subtotal,
			"delivery_charge": doc.DeliveryCharge,
			"total":           doc.Total,
			"item_count":      doc.ItemCount,
			"updated_at":      now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	return nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func fromCart(userID string, c cart.Cart) cartDocument {
	doc := cartDocument{
		UserID:         userID,
		Items:          make([]lineDocument, 0, len(c.Lines)),
		Subtotal:       c.Subtotal.String(),
		DeliveryCharge: c.DeliveryCharge.String(),
		Total:          c.Total.String(),
		ItemCount:      c.ItemCount,
	}
	for _, l := range c.Lines {
		ld := lineDocument{
			LineID:      l.ID,
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Category:    l.Product.Category,
			Image:       l.Product.Image,
			VariantID:   l.Variant.ID,
			Size:        l.Variant.Size,
			Unit:        l.Variant.Unit,
			Price:       l.Variant.Price.String(),
			Stock:       l.Variant.StockQuantity,
			Available:   l.Variant.Available,
			Quantity:    l.Quantity,
			AddedAt:     l.AddedAt,
		}
		if l.Variant.DiscountedPrice != nil {
			ld.DiscountedPrice = l.Variant.DiscountedPrice.String()
		}
		doc.Items = append(doc.Items, ld)
	}
	return doc
}

func (d cartDocument) toCart() cart.Cart {
	c := cart.Cart{
		Lines:          make([]cart.Line, 0, len(d.Items)),
		Subtotal:       parseAmount(d.Subtotal),
		DeliveryCharge: parseAmount(d.DeliveryCharge),
		Total:          parseAmount(d.Total),
		ItemCount:      d.ItemCount,
	}
	for _, it := range d.Items {
		line := cart.Line{
			ID: it.LineID,
			Product: cart.ProductRef{
				ID:       it.ProductID,
				Name:     it.ProductName,
				Category: it.Category,
				Image:    it.Image,
			},
			Variant: catalog.Variant{
				ID:            it.VariantID,
				Size:          it.Size,
				Unit:          it.Unit,
				Price:         parseAmount(it.Price),
				StockQuantity: it.Stock,
				Available:     it.Available,
			},
			Quantity: it.Quantity,
			AddedAt:  it.AddedAt,
		}
		if line.ID == "" {
			// legacy line without its own id
			line.ID = it.ProductID + ":" + it.VariantID
		}
		if it.DiscountedPrice != "" {
			dp := parseAmount(it.DiscountedPrice)
			line.Variant.DiscountedPrice = &dp
		}
		c.Lines = append(c.Lines, line)
	}
	return c
}

func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return pricing.Round(d)
}
