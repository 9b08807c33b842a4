package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

// Documents written by this service carry schemaVersion 2. Anything older
// is a first-generation record and goes through the legacy adapter.
const patientSchemaVersion = 2

type patientDocument struct {
	entity.Patient `bson:",inline"`
	PhoneKey       string `bson:"phoneKey"`
	SchemaVersion  int    `bson:"schemaVersion"`
}

type MongoPatientRepository struct {
	Coll   *mongo.Collection
	Loc    *time.Location
	Logger zerolog.Logger
}

func NewMongoPatientRepository(db *mongo.Database, collection string, loc *time.Location, logger zerolog.Logger) *MongoPatientRepository {
	return &MongoPatientRepository{Coll: db.Collection(collection), Loc: loc, Logger: logger}
}

func (r *MongoPatientRepository) decode(raw bson.Raw) (*entity.Patient, error) {
	var head struct {
		SchemaVersion int `bson:"schemaVersion"`
	}
	if err := bson.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	if head.SchemaVersion >= patientSchemaVersion {
		var doc patientDocument
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		p := doc.Patient
		return &p, nil
	}

	var legacy entity.LegacyPatient
	if err := bson.Unmarshal(raw, &legacy); err != nil {
		return nil, err
	}
	p, issues := legacy.ToPatient(r.Loc)
	for _, issue := range issues {
		r.Logger.Debug().Str("patient_id", legacy.ID).Str("field", issue.Field).Str("value", issue.Value).Msg("legacy value replaced by fallback")
	}
	return p, nil
}

func (r *MongoPatientRepository) find(ctx context.Context, filter bson.M, keep func(*entity.Patient) bool) ([]*entity.Patient, error) {
	cursor, err := r.Coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find patients: %w", err)
	}
	defer cursor.Close(ctx)

	patients := make([]*entity.Patient, 0, cursor.RemainingBatchLength())
	for cursor.Next(ctx) {
		p, err := r.decode(cursor.Current)
		if err != nil {
			return nil, fmt.Errorf("decode patient: %w", err)
		}
		if keep == nil || keep(p) {
			patients = append(patients, p)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return patients, nil
}

// FindActive filters terminal records in the query and again after decoding,
// since legacy documents store Korean status labels.
func (r *MongoPatientRepository) FindActive(ctx context.Context) ([]*entity.Patient, error) {
	filter := bson.M{
		"isCompleted":     bson.M{"$ne": true},
		"status":          bson.M{"$nin": bson.A{string(entity.StatusClosed), "종결"}},
		"postVisitStatus": bson.M{"$nin": bson.A{string(entity.PostVisitClosed), "종결"}},
	}
	return r.find(ctx, filter, func(p *entity.Patient) bool { return !p.IsTerminal() })
}

func (r *MongoPatientRepository) FindAll(ctx context.Context) ([]*entity.Patient, error) {
	return r.find(ctx, bson.M{}, nil)
}

func (r *MongoPatientRepository) FindByCallInRange(ctx context.Context, from, to entity.Date) ([]*entity.Patient, error) {
	filter := bson.M{"callInDate": bson.M{"$gte": string(from), "$lte": string(to)}}
	return r.find(ctx, filter, func(p *entity.Patient) bool { return p.CallInDate.Within(from, to) })
}

func (r *MongoPatientRepository) findOne(ctx context.Context, filter bson.M) (*entity.Patient, error) {
	raw, err := r.Coll.FindOne(ctx, filter).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return r.decode(raw)
}

func (r *MongoPatientRepository) FindByID(ctx context.Context, id string) (*entity.Patient, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoPatientRepository) FindByPhone(ctx context.Context, phone string) (*entity.Patient, error) {
	key := entity.NormalizePhone(phone)
	if key == "" {
		return nil, entity.ErrPatientNotFound
	}
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"phoneKey": key},
		bson.M{"phoneNumber": phone},
	}})
}

// Save writes the whole record, upgrading legacy documents in place.
func (r *MongoPatientRepository) Save(ctx context.Context, p *entity.Patient) error {
	doc := patientDocument{
		Patient:       *p,
		PhoneKey:      entity.NormalizePhone(p.Phone),
		SchemaVersion: patientSchemaVersion,
	}
	_, err := r.Coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save patient %s: %w", p.ID, err)
	}
	return nil
}

// UpsertByPhone replaces the record sharing p's phone, keeping its id.
func (r *MongoPatientRepository) UpsertByPhone(ctx context.Context, p *entity.Patient) error {
	existing, err := r.FindByPhone(ctx, p.Phone)
	switch {
	case err == nil:
		p.ID = existing.ID
		if p.CreatedAt.IsZero() {
			p.CreatedAt = existing.CreatedAt
		}
	case !errors.Is(err, entity.ErrPatientNotFound):
		return err
	}
	return r.Save(ctx, p)
}

func (r *MongoPatientRepository) Delete(ctx context.Context, id string) error {
	res, err := r.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete patient %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return entity.ErrPatientNotFound
	}
	return nil
}

// Ping reports whether the document store answers.
func (r *MongoPatientRepository) Ping(ctx context.Context) error {
	return r.Coll.Database().Client().Ping(ctx, nil)
}

// MongoLegacyPatientRepository reads the first-generation collection.
type MongoLegacyPatientRepository struct {
	Coll *mongo.Collection
}

func NewMongoLegacyPatientRepository(db *mongo.Database, collection string) *MongoLegacyPatientRepository {
	return &MongoLegacyPatientRepository{Coll: db.Collection(collection)}
}

// FindAllLegacy returns the newest records first so de-duplication by phone
// keeps the most recently modified one.
func (r *MongoLegacyPatientRepository) FindAllLegacy(ctx context.Context) ([]entity.LegacyPatient, error) {
	opts := options.Find().SetSort(bson.D{{Key: "lastModifiedAt", Value: -1}, {Key: "updatedAt", Value: -1}})
	cursor, err := r.Coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find legacy patients: %w", err)
	}

	var legacy []entity.LegacyPatient
	if err := cursor.All(ctx, &legacy); err != nil {
		return nil, fmt.Errorf("decode legacy patients: %w", err)
	}
	return legacy, nil
}
