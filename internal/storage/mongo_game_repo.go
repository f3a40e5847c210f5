package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/annel0/prefab-loader/internal/logging"
	"github.com/annel0/prefab-loader/internal/storage_interface"
)

// MongoGameOptions contains connection settings for MongoDB game store.
type MongoGameOptions struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. prefabs
	Collection string // e.g. games
}

// gameDoc - документ игры. saved_at хранится в наносекундах,
// BSON date теряет точность до миллисекунд.
type gameDoc struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	Author      string `bson:"author"`
	Description string `bson:"description"`
	Version     int32  `bson:"version"`
	PrefabCount int32  `bson:"prefab_count"`
	Size        int64  `bson:"size"`
	SavedAt     int64  `bson:"saved_at"`
	Data        []byte `bson:"data,omitempty"`
}

func (d *gameDoc) meta() storage_interface.GameMeta {
	return storage_interface.GameMeta{
		ID:          d.ID,
		Name:        d.Name,
		Author:      d.Author,
		Description: d.Description,
		Version:     uint16(d.Version),
		PrefabCount: int(d.PrefabCount),
		Size:        int(d.Size),
		SavedAt:     time.Unix(0, d.SavedAt).UTC(),
	}
}

// metaProjection исключает данные игры из выборки
var metaProjection = bson.D{{Key: "data", Value: 0}}

// MongoGameRepo implements GameStore on MongoDB backend.
type MongoGameRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *logging.Logger
}

// NewMongoGameRepo establishes connection and returns repository.
func NewMongoGameRepo(ctx context.Context, opts MongoGameOptions) (*MongoGameRepo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	// ping
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	repo := &MongoGameRepo{
		client:     client,
		collection: client.Database(opts.Database).Collection(opts.Collection),
		log:        logging.GetStorageLogger(),
	}
	repo.log.Info("MongoDB хранилище игр подключено: %s/%s", opts.Database, opts.Collection)
	return repo, nil
}

// Save заменяет документ целиком (upsert)
func (m *MongoGameRepo) Save(ctx context.Context, rec *storage_interface.GameRecord) error {
	if rec == nil || rec.Meta.ID == "" {
		return fmt.Errorf("пустой ID игры")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	meta := rec.Meta
	doc := gameDoc{
		ID:          meta.ID,
		Name:        meta.Name,
		Author:      meta.Author,
		Description: meta.Description,
		Version:     int32(meta.Version),
		PrefabCount: int32(meta.PrefabCount),
		Size:        int64(meta.Size),
		SavedAt:     meta.SavedAt.UnixNano(),
		Data:        rec.Data,
	}

	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": meta.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("ошибка сохранения игры %s в MongoDB: %w", meta.ID, err)
	}
	return nil
}

// Load загружает игру целиком
func (m *MongoGameRepo) Load(ctx context.Context, id string) (*storage_interface.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc gameDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return nil, m.notFound(id, err)
	}
	return &storage_interface.GameRecord{Meta: doc.meta(), Data: doc.Data}, nil
}

// Info загружает документ без данных
func (m *MongoGameRepo) Info(ctx context.Context, id string) (*storage_interface.GameMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc gameDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(metaProjection)).Decode(&doc)
	if err != nil {
		return nil, m.notFound(id, err)
	}
	meta := doc.meta()
	return &meta, nil
}

// List возвращает метаданные, отсортированные по _id
func (m *MongoGameRepo) List(ctx context.Context) ([]storage_interface.GameMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	findOpts := options.Find().SetProjection(metaProjection).SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.collection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка игр из MongoDB: %w", err)
	}
	defer cursor.Close(ctx)

	metas := make([]storage_interface.GameMeta, 0)
	for cursor.Next(ctx) {
		var doc gameDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("ошибка декодирования документа: %w", err)
		}
		metas = append(metas, doc.meta())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return metas, nil
}

// Delete удаляет документ игры
func (m *MongoGameRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("ошибка удаления игры %s из MongoDB: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("игра %s: %w", id, storage_interface.ErrGameNotFound)
	}
	return nil
}

// Close разрывает соединение с MongoDB
func (m *MongoGameRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoGameRepo) notFound(id string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("игра %s: %w", id, storage_interface.ErrGameNotFound)
	}
	return fmt.Errorf("ошибка чтения игры %s из MongoDB: %w", id, err)
}

var _ storage_interface.GameStore = (*MongoGameRepo)(nil)
