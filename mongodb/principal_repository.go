package mongodb

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/authcore-io/authcore/domain"
)

// principalDoc is the stored shape of a directory entry. Grants live inline
// on the record; role definitions are embedded already expanded, since this
// store is a read model and role CRUD happens elsewhere.
type principalDoc struct {
	ID           string           `bson:"_id"`
	Email        string           `bson:"email"`
	DisplayName  string           `bson:"display_name,omitempty"`
	PasswordHash string           `bson:"password_hash"`
	Grants       *domain.GrantSet `bson:"grants,omitempty"`
}

// PrincipalRepositoryMongo implements domain.PrincipalLookup against the
// principals collection.
type PrincipalRepositoryMongo struct {
	collection *mongo.Collection
}

// NewPrincipalRepositoryMongo creates a new PrincipalRepositoryMongo and
// ensures the unique email index exists.
func NewPrincipalRepositoryMongo(ctx context.Context, db *mongo.Database) (*PrincipalRepositoryMongo, error) {
	repo := &PrincipalRepositoryMongo{
		collection: db.Collection(PrincipalsCollection),
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Warn().Err(err).Msg("Issue creating email index for principals collection (might already exist or other error)")
	}

	return repo, nil
}

// PrincipalByIdentifier looks up a directory entry by sign-in identifier.
// Identifiers are email addresses, matched case-insensitively by folding to
// lower case before the query.
func (r *PrincipalRepositoryMongo) PrincipalByIdentifier(ctx context.Context, identifier string) (*domain.PrincipalRecord, error) {
	var doc principalDoc
	err := r.collection.FindOne(ctx, bson.M{"email": strings.ToLower(identifier)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPrincipalNotFound
		}
		log.Error().Err(err).Msg("Error looking up principal by identifier in MongoDB")
		return nil, err
	}

	return &domain.PrincipalRecord{
		Principal: domain.Principal{
			ID:          doc.ID,
			Email:       doc.Email,
			DisplayName: doc.DisplayName,
		},
		PasswordHash: doc.PasswordHash,
	}, nil
}

// GrantSetByPrincipal returns the principal's aggregated grants. A record
// without grants resolves to an empty set, which denies everything except
// empty permission requirements.
func (r *PrincipalRepositoryMongo) GrantSetByPrincipal(ctx context.Context, principalID string) (*domain.GrantSet, error) {
	var doc principalDoc
	opts := options.FindOne().SetProjection(bson.M{"grants": 1})
	err := r.collection.FindOne(ctx, bson.M{"_id": principalID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPrincipalNotFound
		}
		log.Error().Err(err).Str("principalID", principalID).Msg("Error loading grant set from MongoDB")
		return nil, err
	}

	if doc.Grants == nil {
		return &domain.GrantSet{}, nil
	}
	return doc.Grants, nil
}

// Ensure interface compliance
var _ domain.PrincipalLookup = (*PrincipalRepositoryMongo)(nil)
