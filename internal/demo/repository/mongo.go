package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/a2developers/website/backend/go-services/internal/database"
	"github.com/a2developers/website/backend/go-services/internal/demo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClientSource hands out the current client; *database.Supervisor implements it.
type ClientSource interface {
	Client() (database.Client, error)
}

// demoDocument is the stored shape of a DemoRequest.
type demoDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Company   *string            `bson:"company,omitempty"`
	Message   *string            `bson:"message,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (doc demoDocument) toDemo() *demo.DemoRequest {
	return &demo.DemoRequest{
		ID:        doc.ID.Hex(),
		Name:      doc.Name,
		Email:     doc.Email,
		Company:   doc.Company,
		Message:   doc.Message,
		CreatedAt: doc.CreatedAt,
	}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// MongoRepo implements Repository on a MongoDB collection. The client is looked
// up per call so a reconnect by the supervisor is picked up transparently.
type MongoRepo struct {
	src        ClientSource
	database   string
	collection string
}

func NewMongoRepo(src ClientSource, databaseName, collection string) *MongoRepo {
	return &MongoRepo{src: src, database: databaseName, collection: collection}
}

func (m *MongoRepo) col() (*mongo.Collection, error) {
	c, err := m.src.Client()
	if err != nil {
		return nil, err
	}
	return c.Database(m.database).Collection(m.collection), nil
}

// EnsureIndexes is registered as a supervisor connect hook.
func (m *MongoRepo) EnsureIndexes(ctx context.Context, c database.Client) error {
	idx := mongo.IndexModel{Keys: newestFirst, Options: options.Index().SetName("createdAt_desc")}
	_, err := c.Database(m.database).Collection(m.collection).Indexes().CreateOne(ctx, idx)
	if err != nil {
		return fmt.Errorf("create demos index: %w", err)
	}
	return nil
}

func (m *MongoRepo) Create(ctx context.Context, d *demo.DemoRequest) error {
	col, err := m.col()
	if err != nil {
		return err
	}
	id := primitive.NewObjectID()
	if d.ID != "" {
		if id, err = primitive.ObjectIDFromHex(d.ID); err != nil {
			return fmt.Errorf("demo id %q: %w", d.ID, err)
		}
	}
	doc := demoDocument{
		ID:        id,
		Name:      d.Name,
		Email:     d.Email,
		Company:   d.Company,
		Message:   d.Message,
		CreatedAt: d.CreatedAt,
	}
	if _, err := col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert demo: %w", err)
	}
	d.ID = id.Hex()
	return nil
}

func (m *MongoRepo) List(ctx context.Context) ([]*demo.DemoRequest, error) {
	col, err := m.col()
	if err != nil {
		return nil, err
	}
	cur, err := col.Find(ctx, bson.D{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find demos: %w", err)
	}
	defer cur.Close(ctx)

	out := []*demo.DemoRequest{}
	for cur.Next(ctx) {
		var doc demoDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode demo: %w", err)
		}
		out = append(out, doc.toDemo())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate demos: %w", err)
	}
	return out, nil
}
