package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sensive/internal/models"
	"sensive/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context, staffOnly bool) ([]models.User, error)
	SetStaff(ctx context.Context, username string, staff bool) (*models.User, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (user *models.User, err error) {
	ctx, finish := observe(ctx, "users", "get_by_id")
	defer func() { finish(err) }()

	var u models.User
	if err = r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (user *models.User, err error) {
	ctx, finish := observe(ctx, "users", "get_by_username")
	defer func() { finish(err) }()

	var u models.User
	if err = r.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", username)
		}
		return nil, models.NewInternalError(err)
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, finish := observe(ctx, "users", "create")
	defer func() { finish(err) }()

	err = r.db.WithContext(ctx).Create(user).Error
	if isUniqueViolation(err) {
		return models.NewValidationError(fmt.Sprintf("User %q already exists", user.Username))
	}
	return err
}

func (r *userRepository) List(ctx context.Context, staffOnly bool) (users []models.User, err error) {
	ctx, finish := observe(ctx, "users", "list")
	defer func() { finish(err) }()

	q := r.db.WithContext(ctx).Order("username ASC")
	if staffOnly {
		q = q.Where("is_staff = ?", true)
	}
	if err = q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetStaff grants or revokes the staff flag, which gates post authorship and the admin API.
func (r *userRepository) SetStaff(ctx context.Context, username string, staff bool) (user *models.User, err error) {
	user, err = r.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	ctx, finish := observe(ctx, "users", "set_staff")
	defer func() { finish(err) }()

	if err = r.db.WithContext(ctx).Model(user).Update("is_staff", staff).Error; err != nil {
		return nil, fmt.Errorf("update staff flag: %w", err)
	}
	user.IsStaff = staff
	return user, nil
}
