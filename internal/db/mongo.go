package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// InitMongo initializes and returns the MongoDB database holding the job
// mirror. Change streams on the jobs collection require the deployment to be
// a replica set; the watcher checks that itself at startup.
func InitMongo() (*mongo.Database, error) {
	uri := getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := getEnvOrDefault("MONGO_DB", "jobboard")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	if appName := os.Getenv("MONGO_APP_NAME"); appName != "" {
		clientOpts.SetAppName(appName)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Test the connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(dbName), nil
}
