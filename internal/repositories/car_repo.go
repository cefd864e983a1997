package repositories

import (
	"context"
	"fmt"
	"strings"

	"motormart/internal/models"

	"github.com/google/uuid"
)

type CarRepository interface {
	Create(ctx context.Context, car *models.Car) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, update *models.CarStatusUpdate) error
	Search(ctx context.Context, filter *models.CarSearchFilter) ([]*models.Car, error)
}

type carRepo struct {
	db DB
}

func NewCarRepo(db DB) CarRepository {
	return &carRepo{db: db}
}

const carColumns = `id, make, model, year, price, mileage, color, fuel_type, transmission, body_type, seats, description, status, featured, images, created_at, updated_at`

func (r *carRepo) Create(ctx context.Context, car *models.Car) error {
	query := `
		INSERT INTO cars (id, make, model, year, price, mileage, color, fuel_type, transmission, body_type, seats, description, status, featured, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, car.ID, car.Make, car.Model, car.Year, car.Price, car.Mileage, car.Color, car.FuelType, car.Transmission, car.BodyType, car.Seats, car.Description, car.Status, car.Featured, car.Images)
	return err
}

func (r *carRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	car := &models.Car{}
	query := fmt.Sprintf(`SELECT %s FROM cars WHERE id = $1`, carColumns)
	err := r.db.QueryRow(ctx, query, id).Scan(&car.ID, &car.Make, &car.Model, &car.Year, &car.Price, &car.Mileage, &car.Color, &car.FuelType, &car.Transmission, &car.BodyType, &car.Seats, &car.Description, &car.Status, &car.Featured, &car.Images, &car.CreatedAt, &car.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return car, nil
}

func (r *carRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM cars WHERE id = $1)`
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *carRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM cars WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// UpdateStatus applies a partial update of status and/or featured,
// whichever is provided. Nothing provided is a no-op.
func (r *carRepo) UpdateStatus(ctx context.Context, id uuid.UUID, update *models.CarStatusUpdate) error {
	sets := []string{}
	args := []any{}
	argCount := 0

	if update.Status != nil {
		argCount++
		sets = append(sets, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *update.Status)
	}
	if update.Featured != nil {
		argCount++
		sets = append(sets, fmt.Sprintf("featured = $%d", argCount))
		args = append(args, *update.Featured)
	}
	if len(sets) == 0 {
		return nil
	}

	argCount++
	query := fmt.Sprintf(`UPDATE cars SET %s, updated_at = NOW() WHERE id = $%d`, strings.Join(sets, ", "), argCount)
	args = append(args, id)

	_, err := r.db.Exec(ctx, query, args...)
	return err
}

// Search builds the listing query dynamically. Free text matches make,
// model or color case-insensitively; the attribute filters are exact.
// Results come back newest first.
func (r *carRepo) Search(ctx context.Context, filter *models.CarSearchFilter) ([]*models.Car, error) {
	if filter == nil {
		filter = &models.CarSearchFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = models.DefaultSearchLimit
	}

	queryBase := fmt.Sprintf(`SELECT %s FROM cars`, carColumns)
	conditions := []string{}
	args := []any{}
	argCount := 0

	if filter.Query != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf(`(make ILIKE $%d OR model ILIKE $%d OR color ILIKE $%d)`, argCount, argCount, argCount))
		args = append(args, "%"+filter.Query+"%")
	}
	if filter.Make != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf(`make = $%d`, argCount))
		args = append(args, filter.Make)
	}
	if filter.BodyType != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf(`body_type = $%d`, argCount))
		args = append(args, filter.BodyType)
	}
	if filter.Color != "" {
		argCount++
		conditions = append(conditions, fmt.Sprintf(`color = $%d`, argCount))
		args = append(args, filter.Color)
	}

	if len(conditions) > 0 {
		queryBase += " WHERE " + strings.Join(conditions, " AND ")
	}

	argCount++
	queryBase += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argCount)
	args = append(args, limit)
	if filter.Offset > 0 {
		argCount++
		queryBase += fmt.Sprintf(` OFFSET $%d`, argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cars []*models.Car
	for rows.Next() {
		car := &models.Car{}
		if err := rows.Scan(&car.ID, &car.Make, &car.Model, &car.Year, &car.Price, &car.Mileage, &car.Color, &car.FuelType, &car.Transmission, &car.BodyType, &car.Seats, &car.Description, &car.Status, &car.Featured, &car.Images, &car.CreatedAt, &car.UpdatedAt); err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	return cars, rows.Err()
}
