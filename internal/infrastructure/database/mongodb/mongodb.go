package mongodb

import (
	"context"
	"time"

	"github.com/alimikegami/crispy-cravings/payment-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

func ConnectToMongoDB(uri string, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri).SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, err
	}

	db := client.Database(database)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

// ensureIndexes creates the lookups used by reconciliation and tracking.
// Order numbers double as payment references so they must be unique.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(repository.OrdersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "payment.reference", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "payment.method", Value: 1}, {Key: "payment.status", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	})
	return err
}
