// Package mongo provides the MongoDB implementation of storage.Storage.
//
// Homeowners live in a single collection keyed by ObjectID. A unique
// index on name backs the duplicate check performed by the create handler.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aanand-mishra/homeowners-api/internal/config"
	"github.com/aanand-mishra/homeowners-api/internal/storage"
	"github.com/aanand-mishra/homeowners-api/internal/types"
)

// Mongo is the concrete implementation of storage.Storage.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ storage.Storage = (*Mongo)(nil)

// document is the persisted shape of a homeowner.
type document struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	DateOfBirth    time.Time          `bson:"dateOfBirth"`
	Age            int                `bson:"age"`
	Address        string             `bson:"address"`
	Geocoordinates []float64          `bson:"geocoordinates"`
}

func toDocument(h types.Homeowner) document {
	return document{
		Name:           h.Name,
		DateOfBirth:    h.DateOfBirth.UTC(),
		Age:            h.Age,
		Address:        h.Address,
		Geocoordinates: []float64{h.Geocoordinates.Lon(), h.Geocoordinates.Lat()},
	}
}

func (d document) homeowner() types.Homeowner {
	h := types.Homeowner{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		DateOfBirth: d.DateOfBirth.UTC(),
		Age:         d.Age,
		Address:     d.Address,
	}
	if len(d.Geocoordinates) >= 2 {
		h.Geocoordinates = types.NewCoordinates(d.Geocoordinates[0], d.Geocoordinates[1])
	}
	return h
}

// New connects to cfg.Storage.URI, verifies the connection and ensures the
// unique name index exists.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Storage.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo.New: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo.New: ping: %w", err)
	}

	collection := client.Database(cfg.Storage.Database).Collection(cfg.Storage.Collection)

	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("name_unique"),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo.New: create name index: %w", err)
	}

	return &Mongo{client: client, collection: collection}, nil
}

// GetHomeownerByID fetches one document by _id. Malformed ids match nothing.
func (m *Mongo) GetHomeownerByID(ctx context.Context, id string) (types.Homeowner, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.Homeowner{}, storage.ErrNotFound
	}
	return m.findOne(ctx, "GetHomeownerByID", bson.M{"_id": oid})
}

// GetHomeownerByName fetches one document by exact name.
func (m *Mongo) GetHomeownerByName(ctx context.Context, name string) (types.Homeowner, error) {
	return m.findOne(ctx, "GetHomeownerByName", bson.M{"name": name})
}

func (m *Mongo) findOne(ctx context.Context, op string, filter bson.M) (types.Homeowner, error) {
	var doc document
	if err := m.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Homeowner{}, storage.ErrNotFound
		}
		return types.Homeowner{}, fmt.Errorf("%s: find: %w", op, err)
	}
	return doc.homeowner(), nil
}

// substring matches s anywhere, ignoring case. s is quoted so it is
// matched literally.
func substring(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// GetHomeowners returns the documents matching filter in natural order.
func (m *Mongo) GetHomeowners(ctx context.Context, filter types.Filter) ([]types.Homeowner, error) {
	query := bson.M{}
	if filter.Name != "" {
		query["name"] = bson.M{"$regex": substring(filter.Name)}
	}
	if filter.Address != "" {
		query["address"] = bson.M{"$regex": substring(filter.Address)}
	}

	cursor, err := m.collection.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("GetHomeowners: find: %w", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("GetHomeowners: decode: %w", err)
	}

	homeowners := make([]types.Homeowner, 0, len(docs))
	for _, d := range docs {
		homeowners = append(homeowners, d.homeowner())
	}
	return homeowners, nil
}

// CreateHomeowner inserts h under a new ObjectID.
func (m *Mongo) CreateHomeowner(ctx context.Context, h types.Homeowner) (types.Homeowner, error) {
	doc := toDocument(h)
	doc.ID = primitive.NewObjectID()

	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.Homeowner{}, storage.ErrDuplicateName
		}
		return types.Homeowner{}, fmt.Errorf("CreateHomeowner: insert: %w", err)
	}

	return doc.homeowner(), nil
}

// UpdateHomeownerByID $sets the staged fields and returns the document
// as it is after the update.
func (m *Mongo) UpdateHomeownerByID(ctx context.Context, id string, upd types.HomeownerUpdate) (types.Homeowner, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.Homeowner{}, storage.ErrNotFound
	}

	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.DateOfBirth != nil {
		set["dateOfBirth"] = upd.DateOfBirth.UTC()
	}
	if upd.Age != nil {
		set["age"] = *upd.Age
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	if upd.Geocoordinates != nil {
		set["geocoordinates"] = []float64{upd.Geocoordinates.Lon(), upd.Geocoordinates.Lat()}
	}

	if len(set) == 0 {
		return m.GetHomeownerByID(ctx, id)
	}

	var doc document
	err = m.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return types.Homeowner{}, storage.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return types.Homeowner{}, storage.ErrDuplicateName
		}
		return types.Homeowner{}, fmt.Errorf("UpdateHomeownerByID: find and update: %w", err)
	}

	return doc.homeowner(), nil
}

// DeleteHomeownerByID removes one document by _id.
func (m *Mongo) DeleteHomeownerByID(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("DeleteHomeownerByID: delete: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// DeleteHomeownersByIDs removes every document whose _id is listed.
// Malformed ids are skipped.
func (m *Mongo) DeleteHomeownersByIDs(ctx context.Context, ids []string) (int64, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return 0, nil
	}

	res, err := m.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("DeleteHomeownersByIDs: delete: %w", err)
	}
	return res.DeletedCount, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
