package background

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"motormart/internal/caching"
	"motormart/internal/repositories"
	"motormart/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const carImagePrefix = "cars/"

// JobScheduler runs the maintenance jobs: sweeping image folders whose
// car row never materialized (the upload-then-insert gap) and keeping the
// listing cache warm. None of it changes API behavior.
type JobScheduler struct {
	scheduler gocron.Scheduler
	carRepo   repositories.CarRepository
	storage   services.StorageService
	cache     caching.CacheService
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

func NewJobScheduler(carRepo repositories.CarRepository, storage services.StorageService, cache caching.CacheService) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler: scheduler,
		carRepo:   carRepo,
		storage:   storage,
		cache:     cache,
		jobs:      make(map[string]gocron.Job),
	}

	js.registerJobs()
	return js, nil
}

func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	sweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.sweepOrphanedImages, context.Background()),
		gocron.WithName("orphaned-image-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create orphaned-image sweep job: %v", err)
	} else {
		js.jobs["orphaned-image-sweep"] = sweepJob
	}

	refreshJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.refreshListingCache, context.Background()),
		gocron.WithName("listing-cache-refresh"),
	)
	if err != nil {
		log.Printf("Failed to create listing-cache refresh job: %v", err)
	} else {
		js.jobs["listing-cache-refresh"] = refreshJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// sweepOrphanedImages removes storage objects under cars/<id>/ when no
// car row with that id exists. Best effort; failures are logged and
// retried on the next run.
func (js *JobScheduler) sweepOrphanedImages(ctx context.Context) {
	keys, err := js.storage.ListObjects(ctx, carImagePrefix)
	if err != nil {
		log.Printf("orphan sweep: failed to list stored images: %v", err)
		return
	}

	byCar := make(map[uuid.UUID][]string)
	for _, key := range keys {
		rest := strings.TrimPrefix(key, carImagePrefix)
		carIDStr, _, found := strings.Cut(rest, "/")
		if !found {
			continue
		}
		carID, err := uuid.Parse(carIDStr)
		if err != nil {
			continue
		}
		byCar[carID] = append(byCar[carID], key)
	}

	removed := 0
	for carID, objectPaths := range byCar {
		exists, err := js.carRepo.Exists(ctx, carID)
		if err != nil {
			log.Printf("orphan sweep: existence check for car %s failed: %v", carID, err)
			continue
		}
		if exists {
			continue
		}
		if err := js.storage.Remove(ctx, objectPaths); err != nil {
			log.Printf("orphan sweep: failed to remove images for car %s: %v", carID, err)
			continue
		}
		removed += len(objectPaths)
	}

	if removed > 0 {
		log.Printf("orphan sweep: removed %d orphaned images", removed)
	}
}

func (js *JobScheduler) refreshListingCache(ctx context.Context) {
	cars, err := js.carRepo.Search(ctx, nil)
	if err != nil {
		log.Printf("listing cache refresh failed: %v", err)
		return
	}
	if err := js.cache.SetCarList(ctx, cars, 15*time.Minute); err != nil {
		log.Printf("listing cache refresh: failed to store list: %v", err)
	}
}
