package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hyperjump/buscador/internal/models"
)

// MongoConfig describes the account collection.
type MongoConfig struct {
	URI                    string
	Database               string
	Collection             string
	ServerSelectionTimeout time.Duration
}

// MongoRepository implements Repository over a MongoDB collection of
// {usuario, password, rol, permisos} documents.
type MongoRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoRepository connects to cfg.URI. Server selection is bounded by
// cfg.ServerSelectionTimeout so an unreachable server fails fast.
func NewMongoRepository(ctx context.Context, cfg MongoConfig) (*MongoRepository, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: mongo uri is required", models.ErrConfig)
	}
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	return &MongoRepository{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// NewMongoRepositoryFromCollection wraps an existing collection handle.
func NewMongoRepositoryFromCollection(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{client: coll.Database().Client(), coll: coll}
}

// EnsureIndexes creates the unique index on usuario.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "usuario", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("usuario_unique"),
	})
	if err != nil {
		return fmt.Errorf("create usuario index: %w", err)
	}
	return nil
}

// Find returns the account stored under username.
func (r *MongoRepository) Find(ctx context.Context, username string) (*models.Account, error) {
	var acc models.Account
	err := r.coll.FindOne(ctx, bson.M{"usuario": username}).Decode(&acc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: usuario %q", models.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	return &acc, nil
}

// List returns all accounts ordered by username, without passwords.
func (r *MongoRepository) List(ctx context.Context) ([]models.Account, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 0, "password": 0}).
		SetSort(bson.D{{Key: "usuario", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	accs := []models.Account{}
	if err := cur.All(ctx, &accs); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	return accs, nil
}

// Insert adds acc. A duplicate key yields models.ErrConflict.
func (r *MongoRepository) Insert(ctx context.Context, acc models.Account) error {
	_, err := r.coll.InsertOne(ctx, acc)
	return mapMongoError(err, acc.Username)
}

// Replace sets every field of the document stored under original.
func (r *MongoRepository) Replace(ctx context.Context, original string, acc models.Account) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"usuario": original},
		bson.M{"$set": bson.M{
			"usuario":  acc.Username,
			"password": acc.Password,
			"rol":      acc.Role,
			"permisos": acc.Permissions,
		}},
	)
	if err != nil {
		return mapMongoError(err, acc.Username)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: usuario %q", models.ErrNotFound, original)
	}
	return nil
}

// Delete removes the document stored under username.
func (r *MongoRepository) Delete(ctx context.Context, username string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"usuario": username})
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: usuario %q", models.ErrNotFound, username)
	}
	return nil
}

// Count returns the number of accounts.
func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	return n, nil
}

// Ping checks connectivity against the primary.
func (r *MongoRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	return nil
}

// Close disconnects the client.
func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func mapMongoError(err error, username string) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: usuario %q", models.ErrConflict, username)
	}
	return fmt.Errorf("%w: %v", models.ErrUpstream, err)
}
