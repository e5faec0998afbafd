// Command snapshot exports every record to object storage once and prints the
// presigned download link. It reads the same environment as the server.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/promptkeeper/promptkeeper/internal/config"
	"github.com/promptkeeper/promptkeeper/internal/database"
	"github.com/promptkeeper/promptkeeper/internal/record/service"
	"github.com/promptkeeper/promptkeeper/internal/storage"
	"github.com/promptkeeper/promptkeeper/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Encoding)
	defer logger.Sync()

	if cfg.MongoDB.URI == "" {
		logger.Fatalf("MONGODB_URI is required")
	}
	if !cfg.MinIO.Enabled() {
		logger.Fatalf("MINIO_ENDPOINT is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		logger.Fatalf("cannot connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	objects, err := storage.NewMinIOStorage(ctx, &cfg.MinIO)
	if err != nil {
		logger.Fatalf("cannot open snapshot storage: %v", err)
	}

	col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
	svc := service.NewMongoService(col, service.WithObjectStore(objects, cfg.MinIO.URLExpiry))
	snap, err := svc.ExportSnapshot(ctx)
	if err != nil {
		logger.Fatalf("export failed: %v", err)
	}
	fmt.Println(snap.URL)
}
