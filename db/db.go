package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	ItineraryCollection *mongo.Collection
	ProductCollection   *mongo.Collection
	Client              *mongo.Client
)

// Connect dials MongoDB, pings it and binds the collections.
func Connect(ctx context.Context, uri, database string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("ping mongo: %w", err)
	}

	Client = client
	ItineraryCollection = client.Database(database).Collection("itinerary")
	ProductCollection = client.Database(database).Collection("products")
	return EnsureIndexes(ctx)
}

// EnsureIndexes creates the lookups the repositories filter on.
func EnsureIndexes(ctx context.Context) error {
	_, err := ItineraryCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "itineraryid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "deleted", Value: 1}}},
		{Keys: bson.D{{Key: "deleted", Value: 1}, {Key: "deleted_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("itinerary indexes: %w", err)
	}
	_, err = ProductCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "productid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "product_type", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("product indexes: %w", err)
	}
	return nil
}

func Disconnect(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}
