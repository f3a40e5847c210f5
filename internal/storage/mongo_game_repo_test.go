package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/annel0/prefab-loader/internal/storage_interface/storetest"
)

func TestMongoGameRepo(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	repo, err := NewMongoGameRepo(ctx, MongoGameOptions{
		URI:        "mongodb://localhost:27017",
		Database:   "prefab_test",
		Collection: fmt.Sprintf("games_%d", time.Now().UnixNano()),
	})
	if err != nil {
		t.Skipf("MongoDB not available, skipping test: %v", err)
	}
	defer func() {
		_ = repo.collection.Drop(context.Background())
		repo.Close()
	}()

	storetest.Run(t, repo)
}
