package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoURI build a mongodb uri
func MongoURI(user, password, host string, port int) string {
	if user == "" {
		return fmt.Sprintf("mongodb://%s:%d", host, port)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%d", user, password, host, port)
}

// NewMongoDB create a new MongoDB connection
func NewMongoDB(ctx context.Context, c Connection, dbName string) (*MongoDB, error) {
	clientOpts := options.Client().ApplyURI(c.ConnectStr)

	var client *mongo.Client
	var err error

	for i := 0; i <= c.RetryCount; i++ {
		client, err = mongo.Connect(ctx, clientOpts)
		if err == nil {
			pingErr := client.Ping(ctx, readpref.Primary())
			if pingErr == nil {
				return &MongoDB{
					Client:   client,
					Database: client.Database(dbName),
				}, nil
			}
			err = pingErr
			_ = client.Disconnect(ctx)
		}

		if i < c.RetryCount {
			time.Sleep(c.RetryInterval * time.Second)
		}
	}

	return nil, fmt.Errorf("failed to connect to MongoDB after retries: %w", err)
}

// Close disconnect mongoDB
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
