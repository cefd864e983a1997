package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"motormart/internal/caching"
	"motormart/internal/common"
	"motormart/internal/models"
	"motormart/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const listingCacheTTL = 15 * time.Minute

// CarService implements the car record pipeline and listing management.
// Every operation returns either a value or a *common.AppError.
type CarService interface {
	CreateCar(ctx context.Context, subject string, car *models.Car, images []string) (*models.Car, error)
	GetCars(ctx context.Context, filter *models.CarSearchFilter) ([]*models.Car, error)
	ListCars(ctx context.Context, subject string, filter *models.CarSearchFilter) ([]*models.Car, error)
	DeleteCar(ctx context.Context, subject string, id uuid.UUID) error
	UpdateCarStatus(ctx context.Context, subject string, id uuid.UUID, update *models.CarStatusUpdate) error
}

type carService struct {
	carRepo  repositories.CarRepository
	userRepo repositories.UserRepository
	storage  StorageService
	cache    caching.CacheService
}

func NewCarService(carRepo repositories.CarRepository, userRepo repositories.UserRepository, storage StorageService, cache caching.CacheService) CarService {
	return &carService{
		carRepo:  carRepo,
		userRepo: userRepo,
		storage:  storage,
		cache:    cache,
	}
}

// requireUser resolves the authenticated subject to an internal user row.
func (s *carService) requireUser(ctx context.Context, subject string) (*models.User, error) {
	if subject == "" {
		return nil, common.NewUnauthorizedError("unauthorized")
	}
	user, err := s.userRepo.GetBySubject(ctx, subject)
	if err != nil {
		return nil, common.NewUnauthorizedError("user not found")
	}
	return user, nil
}

// CreateCar uploads the embedded images in order, then writes one car row
// keyed by the pre-generated id. Invalid payloads are skipped with a
// warning; zero valid images fails the whole operation. If the row insert
// fails after uploads succeeded, the uploaded objects are removed best
// effort before the error is returned.
func (s *carService) CreateCar(ctx context.Context, subject string, car *models.Car, images []string) (*models.Car, error) {
	if _, err := s.requireUser(ctx, subject); err != nil {
		return nil, err
	}

	if car.Status == "" {
		car.Status = models.CarStatusAvailable
	}
	if !models.ValidCarStatus(car.Status) {
		return nil, common.NewValidationError(fmt.Sprintf("invalid car status %q", car.Status))
	}

	carID := uuid.New()
	folderPath := fmt.Sprintf("cars/%s", carID)

	var imageURLs []string
	var uploadedPaths []string

	for i, payload := range images {
		img, err := parseImagePayload(payload)
		if err != nil {
			log.Printf("WARN: skipping invalid image data at index %d: %v", i, err)
			continue
		}

		fileName := fmt.Sprintf("image-%d-%d.%s", time.Now().UnixMilli(), i, img.ext)
		objectPath := fmt.Sprintf("%s/%s", folderPath, fileName)

		publicURL, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(img.data), int64(len(img.data)), img.contentType)
		if err != nil {
			s.cleanupObjects(ctx, uploadedPaths)
			return nil, common.NewUpstreamError(fmt.Sprintf("failed to upload image %d", i), err)
		}

		imageURLs = append(imageURLs, publicURL)
		uploadedPaths = append(uploadedPaths, objectPath)
	}

	if len(imageURLs) == 0 {
		return nil, common.NewValidationError("no valid images were uploaded")
	}

	car.ID = carID
	car.Images = imageURLs

	if err := s.carRepo.Create(ctx, car); err != nil {
		s.cleanupObjects(ctx, uploadedPaths)
		return nil, common.NewUpstreamError("failed to add car", err)
	}

	s.invalidateListing(ctx)
	return car, nil
}

// GetCars serves the public listing. The unfiltered listing goes through
// the cache; cache failures are logged and never fail the read.
func (s *carService) GetCars(ctx context.Context, filter *models.CarSearchFilter) ([]*models.Car, error) {
	if filter.IsEmpty() {
		if cached, err := s.cache.GetCarList(ctx); err != nil {
			log.Printf("cache error reading car list: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	cars, err := s.carRepo.Search(ctx, filter)
	if err != nil {
		return nil, common.NewUpstreamError("failed to load cars", err)
	}
	if cars == nil {
		// A nil slice would cache as null and read back as a miss,
		// re-querying an empty store on every request.
		cars = []*models.Car{}
	}

	if filter.IsEmpty() {
		if err := s.cache.SetCarList(ctx, cars, listingCacheTTL); err != nil {
			log.Printf("failed to cache car list: %v", err)
		}
	}
	return cars, nil
}

// ListCars is the admin view of the same query, gated on a known user.
func (s *carService) ListCars(ctx context.Context, subject string, filter *models.CarSearchFilter) ([]*models.Car, error) {
	if _, err := s.requireUser(ctx, subject); err != nil {
		return nil, err
	}
	return s.GetCars(ctx, filter)
}

// DeleteCar removes the row first, then best-effort removes the stored
// images. A storage failure is logged; the delete still succeeds once the
// row is gone.
func (s *carService) DeleteCar(ctx context.Context, subject string, id uuid.UUID) error {
	if _, err := s.requireUser(ctx, subject); err != nil {
		return err
	}

	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NewNotFoundError("car not found")
		}
		return common.NewUpstreamError("failed to load car", err)
	}

	if err := s.carRepo.Delete(ctx, id); err != nil {
		return common.NewUpstreamError("failed to delete car", err)
	}

	var objectPaths []string
	for _, imageURL := range car.Images {
		if path, ok := s.storage.PathFromURL(imageURL); ok {
			objectPaths = append(objectPaths, path)
		}
	}
	if len(objectPaths) > 0 {
		if err := s.storage.Remove(ctx, objectPaths); err != nil {
			log.Printf("error deleting images for car %s: %v", id, err)
		}
	}

	s.invalidateListing(ctx)
	return nil
}

// UpdateCarStatus applies a partial status/featured update. It requires an
// authenticated session but, matching the admin flow, neither a user-row
// lookup nor a prior existence check.
func (s *carService) UpdateCarStatus(ctx context.Context, subject string, id uuid.UUID, update *models.CarStatusUpdate) error {
	if subject == "" {
		return common.NewUnauthorizedError("unauthorized")
	}
	if update.Status != nil && !models.ValidCarStatus(*update.Status) {
		return common.NewValidationError(fmt.Sprintf("invalid car status %q", *update.Status))
	}

	if err := s.carRepo.UpdateStatus(ctx, id, update); err != nil {
		return common.NewUpstreamError("failed to update car status", err)
	}

	s.invalidateListing(ctx)
	return nil
}

func (s *carService) cleanupObjects(ctx context.Context, objectPaths []string) {
	if len(objectPaths) == 0 {
		return
	}
	if err := s.storage.Remove(ctx, objectPaths); err != nil {
		log.Printf("failed to clean up uploaded images: %v", err)
	}
}

func (s *carService) invalidateListing(ctx context.Context) {
	if err := s.cache.InvalidateCarList(ctx); err != nil {
		log.Printf("failed to invalidate car list cache: %v", err)
	}
}
