package mongodb

import (
	"context"
	"testing"
	"time"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func duplicateKeyError(index string) error {
	return mongo.WriteException{
		WriteErrors: []mongo.WriteError{{
			Code:    11000,
			Message: "E11000 duplicate key error collection: auth.users index: " + index + " dup key",
		}},
	}
}

func TestTranslateDuplicateKey(t *testing.T) {
	assert.Nil(t, translateDuplicateKey(errors.New("network")))
	assert.ErrorIs(t, translateDuplicateKey(duplicateKeyError(model.UsernameUniqueIndex)), domainerrors.ErrUsernameTaken)
	assert.ErrorIs(t, translateDuplicateKey(duplicateKeyError(model.EmailUniqueIndex)), domainerrors.ErrEmailTaken)
	assert.ErrorIs(t, translateDuplicateKey(duplicateKeyError("_id_")), domainerrors.ErrAccountConflict)
}

func TestMappers_RoundTrip(t *testing.T) {
	oid := primitive.NewObjectID()
	now := time.Now().UTC().Truncate(time.Millisecond)
	user := &entity.User{
		ID:           oid.Hex(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	doc := fromUserDomain(user)
	assert.Equal(t, oid, doc.ID)
	assert.Equal(t, user, toUserDomain(doc))
}

func TestFromUserDomain_NewUserHasNoID(t *testing.T) {
	doc := fromUserDomain(entity.NewUser("alice", "alice@example.com", "hash"))
	assert.True(t, doc.ID.IsZero())

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, bson.Raw(raw).String(), `"_id"`)
	assert.Contains(t, bson.Raw(raw).String(), `"password"`)
}

func TestUserRepository_MalformedIDIsNotFound(t *testing.T) {
	repo := NewUserRepository(nil)

	_, err := repo.FindByID(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)

	err = repo.Update(context.Background(), &entity.User{ID: "not-an-object-id"})
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestUserIndexes(t *testing.T) {
	indexes := userIndexes()
	require.Len(t, indexes, 2)

	for i, name := range []string{model.UsernameUniqueIndex, model.EmailUniqueIndex} {
		require.NotNil(t, indexes[i].Options.Name)
		assert.Equal(t, name, *indexes[i].Options.Name)
		require.NotNil(t, indexes[i].Options.Unique)
		assert.True(t, *indexes[i].Options.Unique)
	}
}
