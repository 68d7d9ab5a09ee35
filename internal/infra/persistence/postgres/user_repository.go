// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/persistence/model"
	"gatekeeper/internal/infra/persistence/postgres/query"

	"github.com/google/uuid"
	"gorm.io/gen"
	"gorm.io/gorm"
)

// UserRepository implements repository.UserRepository and repository.HealthChecker using GORM.
type UserRepository struct {
	db *gorm.DB
	q  *query.Query
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.HealthChecker  = (*UserRepository)(nil)
)

// NewUserRepository is the constructor for UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
		q:  query.Use(db),
	}
}

// Create inserts the user and copies the generated ID and timestamps back onto it.
func (repo *UserRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.q.UserModel.WithContext(ctx).Create(userM); err != nil {
		if conflict := translateUniqueViolation(err); conflict != nil {
			return conflict
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.ID = userM.ID.String()
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// FindByID retrieves a user by ID. IDs that are not UUIDs cannot exist and resolve to not found.
func (repo *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, domainerrors.ErrUserNotFound
	}

	return repo.findOne(ctx, repo.q.UserModel.ID.Eq(parsed))
}

func (repo *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return repo.findOne(ctx, repo.q.UserModel.Username.Eq(username))
}

func (repo *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.findOne(ctx, repo.q.UserModel.Email.Eq(email))
}

func (repo *UserRepository) findOne(ctx context.Context, cond gen.Condition) (*entity.User, error) {
	userM, err := repo.q.UserModel.WithContext(ctx).
		Where(cond).
		First()

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find user")
	}

	return toUserDomain(userM), nil
}

// Update writes email and password hash. Username and ID are never updated.
func (repo *UserRepository) Update(ctx context.Context, user *entity.User) error {
	parsed, err := uuid.Parse(user.ID)
	if err != nil {
		return domainerrors.ErrUserNotFound
	}

	now := time.Now().UTC()
	result, err := repo.q.UserModel.WithContext(ctx).
		Where(repo.q.UserModel.ID.Eq(parsed)).
		Updates(map[string]any{
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"updated_at":    now,
		})
	if err != nil {
		if conflict := translateUniqueViolation(err); conflict != nil {
			return conflict
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update user")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}

	user.UpdatedAt = now

	return nil
}

func (repo *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return repo.exists(ctx, repo.q.UserModel.Username.Eq(username))
}

func (repo *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return repo.exists(ctx, repo.q.UserModel.Email.Eq(email))
}

func (repo *UserRepository) exists(ctx context.Context, cond gen.Condition) (bool, error) {
	count, err := repo.q.UserModel.WithContext(ctx).Where(cond).Count()
	if err != nil {
		return false, domainerrors.NewDatabaseExecuteError(err, "failed to check user existence")
	}

	return count > 0, nil
}

// Ping checks the underlying connection pool.
func (repo *UserRepository) Ping(ctx context.Context) error {
	sqlDB, err := repo.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}

	return errors.Wrap(sqlDB.PingContext(ctx), "failed to ping PostgreSQL")
}

// --- Mapper Functions ---

func toUserDomain(data *model.UserModel) *entity.User {
	return &entity.User{
		ID:           data.ID.String(),
		Username:     data.Username,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

// fromUserDomain leaves ID as uuid.Nil for new users so the column default applies.
func fromUserDomain(data *entity.User) *model.UserModel {
	userM := &model.UserModel{
		Username:     data.Username,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
	if parsed, err := uuid.Parse(data.ID); err == nil {
		userM.ID = parsed
	}

	return userM
}
