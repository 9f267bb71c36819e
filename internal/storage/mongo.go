package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mithun-VK/trading-chatbot/internal/domain/models"
)

// Collection names used by MongoStore.
const (
	ProfilesCollection   = "profiles"
	MessagesCollection   = "messages"
	WatchlistsCollection = "watchlists"
	PositionsCollection  = "positions"
)

// MongoStore implements Store on MongoDB.
type MongoStore struct {
	client     *mongo.Client
	profiles   *mongo.Collection
	messages   *mongo.Collection
	watchlists *mongo.Collection
	positions  *mongo.Collection
}

// ConnectMongo dials uri, verifies the connection and returns a store on database dbName.
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return NewMongoStore(client.Database(dbName)), nil
}

// NewMongoStore builds a store over an existing database handle.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:     db.Client(),
		profiles:   db.Collection(ProfilesCollection),
		messages:   db.Collection(MessagesCollection),
		watchlists: db.Collection(WatchlistsCollection),
		positions:  db.Collection(PositionsCollection),
	}
}

// EnsureIndexes creates the indexes the queries rely on. It is idempotent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("messages index: %w", err)
	}
	unique := options.Index().SetUnique(true)
	for _, coll := range []*mongo.Collection{s.watchlists, s.positions} {
		if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "symbol", Value: 1}},
			Options: unique,
		}); err != nil {
			return fmt.Errorf("%s index: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) AppendMessages(ctx context.Context, msgs ...models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	docs := make([]any, 0, len(msgs))
	for _, m := range msgs {
		docs = append(docs, m)
	}
	_, err := s.messages.InsertMany(ctx, docs)
	return err
}

func (s *MongoStore) History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.messages.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ChatMessage{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

func (s *MongoStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.profiles.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) UpsertProfile(ctx context.Context, p models.UserProfile) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	_, err := s.profiles.ReplaceOne(ctx, bson.D{{Key: "_id", Value: p.UserID}}, p, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Watchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}, {Key: "symbol", Value: 1}})
	cur, err := s.watchlists.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.WatchlistItem{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) AddToWatchlist(ctx context.Context, userID, symbol string) error {
	filter := bson.D{{Key: "user_id", Value: userID}, {Key: "symbol", Value: symbol}}
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "added_at", Value: time.Now().UTC()}}}}
	_, err := s.watchlists.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) RemoveFromWatchlist(ctx context.Context, userID, symbol string) error {
	return deleteOne(ctx, s.watchlists, userID, symbol)
}

// positionDoc stores decimals as strings so no precision is lost.
type positionDoc struct {
	UserID      string    `bson:"user_id"`
	Symbol      string    `bson:"symbol"`
	Shares      string    `bson:"shares"`
	AverageCost string    `bson:"average_cost"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toPositionDoc(p models.Position) positionDoc {
	return positionDoc{
		UserID:      p.UserID,
		Symbol:      p.Symbol,
		Shares:      p.Shares.String(),
		AverageCost: p.AverageCost.String(),
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d positionDoc) position() (models.Position, error) {
	shares, err := decimal.NewFromString(d.Shares)
	if err != nil {
		return models.Position{}, fmt.Errorf("position %s shares: %w", d.Symbol, err)
	}
	cost, err := decimal.NewFromString(d.AverageCost)
	if err != nil {
		return models.Position{}, fmt.Errorf("position %s average cost: %w", d.Symbol, err)
	}
	return models.Position{UserID: d.UserID, Symbol: d.Symbol, Shares: shares, AverageCost: cost, UpdatedAt: d.UpdatedAt}, nil
}

func (s *MongoStore) Portfolio(ctx context.Context, userID string) ([]models.Position, error) {
	opts := options.Find().SetSort(bson.D{{Key: "symbol", Value: 1}})
	cur, err := s.positions.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []positionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Position, 0, len(docs))
	for _, d := range docs {
		p, err := d.position()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MongoStore) UpsertPosition(ctx context.Context, p models.Position) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	filter := bson.D{{Key: "user_id", Value: p.UserID}, {Key: "symbol", Value: p.Symbol}}
	_, err := s.positions.ReplaceOne(ctx, filter, toPositionDoc(p), options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) RemovePosition(ctx context.Context, userID, symbol string) error {
	return deleteOne(ctx, s.positions, userID, symbol)
}

func deleteOne(ctx context.Context, coll *mongo.Collection, userID, symbol string) error {
	res, err := coll.DeleteOne(ctx, bson.D{{Key: "user_id", Value: userID}, {Key: "symbol", Value: symbol}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
