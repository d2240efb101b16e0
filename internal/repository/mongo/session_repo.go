package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"alcyxob/coach-orchestrator/internal/domain"
	"alcyxob/coach-orchestrator/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "conversation_sessions"

// mongoSessionRepository implements repository.SessionRepository
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new session repository backed by MongoDB.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts a new conversation session.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.ConversationSession) (primitive.ObjectID, error) {
	if session.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session user ID is required")
	}

	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ConversationSession, error) {
	var session domain.ConversationSession
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Update replaces the mutable parts of a session. Called after every state
// transition, so the whole accumulated state is written each time.
func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.ConversationSession) error {
	if session.ID == primitive.NilObjectID {
		return errors.New("session ID is required for update")
	}

	filter := bson.M{"_id": session.ID}
	update := bson.M{
		"$set": bson.M{
			"turns":        session.Turns,
			"requirements": session.Requirements,
			"state":        session.State,
			"draft":        session.Draft,
			"commitResult": session.CommitResult,
			"updatedAt":    time.Now().UTC(),
			// UserID is immutable after creation; not set here.
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a session, ensuring it belongs to the specified user.
func (r *mongoSessionRepository) Delete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	// The filter ensures we only delete if both _id and userId match, so a
	// user cannot abandon another user's session.
	filter := bson.M{
		"_id":    id,
		"userId": userID,
	}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// EnsureSessionIndexes creates necessary indexes for the sessions collection.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Index for listing a user's sessions.
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
		{
			// Index for sweeping stale non-terminal sessions.
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "updatedAt", Value: 1}},
			Options: options.Index().SetName("session_state_updated"),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
