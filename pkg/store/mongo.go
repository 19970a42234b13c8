package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/canopyviz/canopy/pkg/wire"
)

const (
	defaultDatabase   = "canopy"
	defaultCollection = "snapshots"
)

// MongoStore keeps snapshots in a MongoDB collection, one document per
// snapshot with a unique name index.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB at uri and prepares the snapshot
// collection. An empty database name falls back to "canopy".
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = defaultDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	coll := client.Database(database).Collection(defaultCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("creating snapshot index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

// Save upserts a snapshot by name.
func (s *MongoStore) Save(ctx context.Context, snap wire.Snapshot) error {
	if err := validName(snap.Name); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"name": snap.Name},
		snap,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot %q: %w", snap.Name, err)
	}
	return nil
}

// Load reads a snapshot by name.
func (s *MongoStore) Load(ctx context.Context, name string) (wire.Snapshot, error) {
	var snap wire.Snapshot
	err := s.coll.FindOne(ctx, bson.M{"name": name}).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return wire.Snapshot{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return wire.Snapshot{}, fmt.Errorf("loading snapshot %q: %w", name, err)
	}
	return snap, nil
}

// List returns the stored snapshot names in sorted order.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"name": 1}).
		SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var doc struct {
			Name string `bson:"name"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		names = append(names, doc.Name)
	}
	return names, cur.Err()
}

// Delete removes a snapshot. Deleting a missing snapshot returns
// ErrNotFound.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return fmt.Errorf("deleting snapshot %q: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
