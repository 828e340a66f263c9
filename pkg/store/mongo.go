package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/matzehuels/comboom/pkg/errors"
)

// DefaultCollection is the collection records live in.
const DefaultCollection = "snapshots"

// MongoStore keeps records in a MongoDB collection keyed by _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI        string `toml:"uri" validate:"required"`
	Database   string `toml:"database" validate:"required"`
	Collection string `toml:"collection"`
	// Timeout bounds the initial connect and ping.
	Timeout time.Duration `toml:"timeout"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if err := errs.Struct(errs.ErrCodeInvalidConfig, cfg); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "connect mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "ping mongodb")
	}

	s := NewMongoStoreFromClient(client, cfg.Database, cfg.Collection)
	s.owned = true
	return s, nil
}

// NewMongoStoreFromClient uses an existing client. Close leaves the client
// connected.
func NewMongoStoreFromClient(client *mongo.Client, database, collection string) *MongoStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

func (s *MongoStore) Save(ctx context.Context, rec *Record) (string, error) {
	if err := prepare(rec, time.Now()); err != nil {
		return "", err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInternal, err, "save snapshot")
	}
	return rec.ID, nil
}

func (s *MongoStore) Load(ctx context.Context, id string) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "load snapshot")
	}
	return &rec, nil
}

// List aggregates summaries server-side so snapshots are not transferred.
func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "name", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "members", Value: bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$snapshot.members", bson.A{}}}}}}},
			{Key: "clusters", Value: bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$snapshot.clusters", bson.A{}}}}}}},
		}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "list snapshots")
	}
	var out []Info
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "decode snapshot list")
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "delete snapshot")
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client if the store created it.
func (s *MongoStore) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
