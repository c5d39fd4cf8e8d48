package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/authcore-io/authcore/domain"
)

// SessionRepositoryMongo implements the domain.SessionRepository interface
// using MongoDB.
type SessionRepositoryMongo struct {
	collection *mongo.Collection
}

// NewSessionRepositoryMongo creates a new SessionRepositoryMongo.
// It also ensures that necessary indexes are created on the collection.
func NewSessionRepositoryMongo(ctx context.Context, db *mongo.Database) (*SessionRepositoryMongo, error) {
	repo := &SessionRepositoryMongo{
		collection: db.Collection(SessionsCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			// Supersede lookups hit (principal, platform) on live sessions.
			Keys:    bson.D{{Key: "principal_id", Value: 1}, {Key: "platform", Value: 1}},
			Options: options.Index(),
		},
		{
			// ends_at is epoch seconds, so Mongo's TTL index (which wants a
			// BSON date) does not apply; expiry is enforced on read and stale
			// rows are cleaned out of band.
			Keys:    bson.D{{Key: "ends_at", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "deleted_at", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	if _, err := repo.collection.Indexes().CreateMany(ctx, indexModels, options.CreateIndexes()); err != nil {
		log.Warn().Err(err).Msg("Issue creating indexes for auth_sessions collection (might already exist or other error)")
	}

	return repo, nil
}

// StoreSession creates a new session record.
func (r *SessionRepositoryMongo) StoreSession(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.New("session with this ID already exists")
		}
		log.Error().Err(err).Msg("Error storing session in MongoDB")
		return err
	}
	return nil
}

// GetSessionByID retrieves a session by its primary ID.
func (r *SessionRepositoryMongo) GetSessionByID(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		log.Error().Err(err).Str("id", id).Msg("Error getting session by ID from MongoDB")
		return nil, err
	}
	return &session, nil
}

// SwapTokenPair atomically replaces the session's token pair, conditioned on
// the stored pair still equalling previous. FindOneAndUpdate is a single
// conditional write on the server; two concurrent swaps against the same
// previous pair cannot both match, so exactly one wins.
func (r *SessionRepositoryMongo) SwapTokenPair(ctx context.Context, sessionID string, previous, next domain.TokenPair) error {
	filter := bson.M{
		"_id":                   sessionID,
		"current_access_token":  previous.AccessToken,
		"current_refresh_token": previous.RefreshToken,
		"deleted_at":            nil,
	}
	update := bson.M{"$set": bson.M{
		"current_access_token":  next.AccessToken,
		"current_refresh_token": next.RefreshToken,
		"updated_at":            time.Now().UTC(),
	}}

	err := r.collection.FindOneAndUpdate(ctx, filter, update).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Session gone, tombstoned, or the pair moved under us.
			return domain.ErrTokenPairConflict
		}
		log.Error().Err(err).Str("sessionID", sessionID).Msg("Error swapping token pair in MongoDB")
		return err
	}
	return nil
}

// RevokeSession tombstones a session. Revoking an already-terminal session is
// a no-op success reporting revoked=false; only a missing record is an error.
func (r *SessionRepositoryMongo) RevokeSession(ctx context.Context, id string) (bool, error) {
	now := time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}},
	)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Error revoking session in MongoDB")
		return false, err
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	// Nothing live matched: distinguish "already revoked" from "absent".
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, domain.ErrSessionNotFound
		}
		return false, err
	}
	return false, nil
}

// RevokePlatformSessions tombstones every live session for the
// (principal, platform) pair, except the given ids, and returns the revoked
// ids. The id list is read first and the tombstone write targets exactly
// those ids, so the returned set always matches what was revoked.
func (r *SessionRepositoryMongo) RevokePlatformSessions(ctx context.Context, principalID string, platform domain.Platform, exceptIDs ...string) ([]string, error) {
	filter := bson.M{
		"principal_id": principalID,
		"platform":     platform,
		"deleted_at":   nil,
	}
	if len(exceptIDs) > 0 {
		filter["_id"] = bson.M{"$nin": exceptIDs}
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		log.Error().Err(err).Str("principalID", principalID).Msg("Error listing platform sessions for revocation in MongoDB")
		return nil, err
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		log.Error().Err(err).Msg("Error decoding platform sessions for revocation from MongoDB")
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}

	now := time.Now().UTC()
	if _, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "deleted_at": nil},
		bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}},
	); err != nil {
		log.Error().Err(err).Str("principalID", principalID).Msg("Error revoking platform sessions in MongoDB")
		return nil, err
	}
	return ids, nil
}

// ListSessionsByPrincipal retrieves sessions for a principal, optionally
// filtered.
func (r *SessionRepositoryMongo) ListSessionsByPrincipal(ctx context.Context, principalID string, filter domain.SessionFilter) ([]*domain.Session, error) {
	mongoFilter := bson.M{"principal_id": principalID}
	if filter.Platform != "" {
		mongoFilter["platform"] = filter.Platform
	}
	if !filter.IncludeDead {
		mongoFilter["deleted_at"] = nil
		mongoFilter["ends_at"] = bson.M{"$gt": time.Now().Unix()}
	}
	if !filter.From.IsZero() || !filter.To.IsZero() {
		dateFilter := bson.M{}
		if !filter.From.IsZero() {
			dateFilter["$gte"] = filter.From
		}
		if !filter.To.IsZero() {
			dateFilter["$lte"] = filter.To
		}
		mongoFilter["created_at"] = dateFilter
	}

	cursor, err := r.collection.Find(ctx, mongoFilter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		log.Error().Err(err).Str("principalID", principalID).Msg("Error listing sessions by principal from MongoDB")
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*domain.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		log.Error().Err(err).Msg("Error decoding listed sessions from MongoDB")
		return nil, err
	}
	return sessions, nil
}

// Ensure interface compliance
var _ domain.SessionRepository = (*SessionRepositoryMongo)(nil)
