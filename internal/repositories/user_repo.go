package repositories

import (
	"context"

	"motormart/internal/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetBySubject(ctx context.Context, subject string) (*models.User, error)
}

type userRepo struct {
	db DB
}

func NewUserRepo(db DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, subject, email, name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (subject) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.Subject, user.Email, user.Name, user.Role)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, subject, email, name, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Subject, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetBySubject resolves the identity provider's opaque user id to the
// internal user row.
func (r *userRepo) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, subject, email, name, role, created_at, updated_at
		FROM users
		WHERE subject = $1
	`
	err := r.db.QueryRow(ctx, query, subject).Scan(&user.ID, &user.Subject, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}
