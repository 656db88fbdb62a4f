package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/orally-backend/internal/models"
)

const usersCollection = "users"

// mongoNote is the stored shape of a note. The _id is "<userID>/<noteID>" so
// that change streams can be filtered per user on documentKey alone, which
// is all a delete event carries.
type mongoNote struct {
	Key       string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoStore is a DocumentStore on MongoDB. Watch and MoveNote need a
// replica set (change streams and multi-document transactions).
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// NewMongoStore wraps an already connected client.
func NewMongoStore(client *mongo.Client, db *mongo.Database, logger *slog.Logger) *MongoStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoStore{client: client, db: db, logger: logger}
}

// EnsureIndexes creates the per-user listing index on both note collections.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: 1},
		},
		Options: options.Index().SetName("idx_user_created"),
	}
	for _, c := range []Collection{Notes, RecentlyDeleted} {
		if _, err := s.db.Collection(string(c)).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("ensure index on %s: %w", c, err)
		}
	}
	return nil
}

func (s *MongoStore) GetRecord(ctx context.Context, userID string) (models.EngagementRecord, error) {
	var rec models.EngagementRecord
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.EngagementRecord{}, nil
	}
	if err != nil {
		return models.EngagementRecord{}, fmt.Errorf("get record %s: %w", userID, err)
	}
	return rec, nil
}

func (s *MongoStore) MergeRecord(ctx context.Context, userID string, u models.RecordUpdate) error {
	if u.IsEmpty() {
		return nil
	}
	_, err := s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M(u.Fields())},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("merge record %s: %w", userID, err)
	}
	return nil
}

func (s *MongoStore) ListNotes(ctx context.Context, userID string, c Collection) ([]models.Note, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.db.Collection(string(c)).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	defer cur.Close(ctx)

	var docs []mongoNote
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list %s: %w", c, err)
	}
	out := make([]models.Note, 0, len(docs))
	for _, d := range docs {
		_, id, ok := splitNoteKey(d.Key)
		if !ok {
			continue
		}
		out = append(out, models.Note{ID: id, NoteData: models.NoteData{Title: d.Title, Content: d.Content}})
	}
	return out, nil
}

func (s *MongoStore) GetNote(ctx context.Context, userID string, c Collection, id string) (models.Note, error) {
	if err := checkCollection(c); err != nil {
		return models.Note{}, err
	}
	var d mongoNote
	err := s.db.Collection(string(c)).FindOne(ctx, bson.M{"_id": noteKey(userID, id)}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Note{}, ErrNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("get %s/%s: %w", c, id, err)
	}
	return models.Note{ID: id, NoteData: models.NoteData{Title: d.Title, Content: d.Content}}, nil
}

func (s *MongoStore) AddNote(ctx context.Context, userID string, c Collection, data models.NoteData) (string, error) {
	if err := checkCollection(c); err != nil {
		return "", err
	}
	id := primitive.NewObjectID().Hex()
	doc := mongoNote{
		Key:       noteKey(userID, id),
		UserID:    userID,
		Title:     data.Title,
		Content:   data.Content,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.Collection(string(c)).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("add to %s: %w", c, err)
	}
	return id, nil
}

func (s *MongoStore) UpdateNote(ctx context.Context, userID string, c Collection, id string, data models.NoteData) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	res, err := s.db.Collection(string(c)).UpdateOne(ctx,
		bson.M{"_id": noteKey(userID, id)},
		bson.M{"$set": bson.M{"title": data.Title, "content": data.Content}},
	)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s/%s: %w", c, id, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) SetNote(ctx context.Context, userID string, c Collection, id string, data models.NoteData) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	if err := s.setNote(ctx, userID, c, id, data); err != nil {
		return fmt.Errorf("set %s/%s: %w", c, id, err)
	}
	return nil
}

func (s *MongoStore) setNote(ctx context.Context, userID string, c Collection, id string, data models.NoteData) error {
	_, err := s.db.Collection(string(c)).UpdateOne(ctx,
		bson.M{"_id": noteKey(userID, id)},
		bson.M{
			"$set":         bson.M{"user_id": userID, "title": data.Title, "content": data.Content},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) DeleteNote(ctx context.Context, userID string, c Collection, id string) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	if _, err := s.db.Collection(string(c)).DeleteOne(ctx, bson.M{"_id": noteKey(userID, id)}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", c, id, err)
	}
	return nil
}

// MoveNote implements Mover with a multi-document transaction.
func (s *MongoStore) MoveNote(ctx context.Context, userID string, from, to Collection, id string, data models.NoteData) error {
	if err := checkCollection(from); err != nil {
		return err
	}
	if err := checkCollection(to); err != nil {
		return err
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("move %s: start session: %w", id, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := s.setNote(sc, userID, to, id, data); err != nil {
			return nil, err
		}
		_, err := s.db.Collection(string(from)).DeleteOne(sc, bson.M{"_id": noteKey(userID, id)})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("move %s from %s to %s: %w", id, from, to, err)
	}
	return nil
}

// Watch opens a change stream on the collection filtered to the user's keys
// and re-lists the collection after every event.
func (s *MongoStore) Watch(ctx context.Context, userID string, c Collection) (<-chan []models.Note, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "documentKey._id", Value: bson.D{{Key: "$regex", Value: userKeyPattern(userID)}}},
		}}},
	}
	// The stream is opened before the first listing so no change between
	// the two is lost.
	stream, err := s.db.Collection(string(c)).Watch(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", c, err)
	}

	out := make(chan []models.Note)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		emit := func() bool {
			notes, err := s.ListNotes(ctx, userID, c)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("watch: list failed", "collection", c, "user_id", userID, "error", err)
				}
				return ctx.Err() == nil
			}
			select {
			case out <- notes:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for stream.Next(ctx) {
			if !emit() {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			s.logger.Warn("watch: change stream ended", "collection", c, "user_id", userID, "error", err)
		}
	}()
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func noteKey(userID, id string) string {
	return userID + "/" + id
}

// splitNoteKey splits on the last slash; note ids never contain one.
func splitNoteKey(key string) (userID, id string, ok bool) {
	i := strings.LastIndex(key, "/")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

func userKeyPattern(userID string) string {
	return "^" + regexp.QuoteMeta(userID+"/") + "[^/]+$"
}

var (
	_ DocumentStore = (*MongoStore)(nil)
	_ Mover         = (*MongoStore)(nil)
)
