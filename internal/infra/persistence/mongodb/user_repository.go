package mongodb

import (
	"context"
	"strings"
	"time"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/persistence/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// UserRepository implements repository.UserRepository and repository.HealthChecker on a collection.
type UserRepository struct {
	collection *mongo.Collection
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.HealthChecker  = (*UserRepository)(nil)
)

func NewUserRepository(collection *mongo.Collection) *UserRepository {
	return &UserRepository{collection: collection}
}

func (repo *UserRepository) Create(ctx context.Context, user *entity.User) error {
	now := time.Now().UTC()
	doc := fromUserDomain(user)
	doc.ID = primitive.NilObjectID
	doc.CreatedAt = now
	doc.UpdatedAt = now

	res, err := repo.collection.InsertOne(ctx, doc)
	if err != nil {
		if conflict := translateDuplicateKey(err); conflict != nil {
			return conflict
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to insert user")
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return domainerrors.NewDatabaseExecuteError(errors.Errorf("unexpected inserted id %T", res.InsertedID), "failed to insert user")
	}

	user.ID = oid.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now

	return nil
}

// FindByID resolves malformed ObjectIDs to not found.
func (repo *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domainerrors.ErrUserNotFound
	}

	return repo.findOne(ctx, bson.M{"_id": oid})
}

func (repo *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return repo.findOne(ctx, bson.M{"username": username})
}

func (repo *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.findOne(ctx, bson.M{"email": email})
}

func (repo *UserRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var doc model.UserDocument
	if err := repo.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find user")
	}

	return toUserDomain(&doc), nil
}

// Update sets email and password hash. Username and ID are never updated.
func (repo *UserRepository) Update(ctx context.Context, user *entity.User) error {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return domainerrors.ErrUserNotFound
	}

	now := time.Now().UTC()
	res, err := repo.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"email":     user.Email,
			"password":  user.PasswordHash,
			"updatedAt": now,
		},
	})
	if err != nil {
		if conflict := translateDuplicateKey(err); conflict != nil {
			return conflict
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update user")
	}
	if res.MatchedCount == 0 {
		return domainerrors.ErrUserNotFound
	}

	user.UpdatedAt = now

	return nil
}

func (repo *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return repo.exists(ctx, bson.M{"username": username})
}

func (repo *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return repo.exists(ctx, bson.M{"email": email})
}

func (repo *UserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := repo.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, domainerrors.NewDatabaseExecuteError(err, "failed to check user existence")
	}

	return count > 0, nil
}

func (repo *UserRepository) Ping(ctx context.Context) error {
	return errors.Wrap(repo.collection.Database().Client().Ping(ctx, readpref.Primary()), "failed to ping MongoDB")
}

// translateDuplicateKey maps a duplicate key error to the conflict of the
// violated index. It returns nil for any other error.
func translateDuplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, model.UsernameUniqueIndex):
		return domainerrors.ErrUsernameTaken
	case strings.Contains(msg, model.EmailUniqueIndex):
		return domainerrors.ErrEmailTaken
	default:
		return domainerrors.ErrAccountConflict
	}
}

// --- Mapper Functions ---

func toUserDomain(doc *model.UserDocument) *entity.User {
	return &entity.User{
		ID:           doc.ID.Hex(),
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

func fromUserDomain(user *entity.User) *model.UserDocument {
	doc := &model.UserDocument{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if oid, err := primitive.ObjectIDFromHex(user.ID); err == nil {
		doc.ID = oid
	}

	return doc
}
