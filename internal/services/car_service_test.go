package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"motormart/internal/common"
	"motormart/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockCarRepository struct {
	mock.Mock
}

func (m *MockCarRepository) Create(ctx context.Context, car *models.Car) error {
	args := m.Called(ctx, car)
	return args.Error(0)
}

func (m *MockCarRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}

func (m *MockCarRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCarRepository) UpdateStatus(ctx context.Context, id uuid.UUID, update *models.CarStatusUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockCarRepository) Search(ctx context.Context, filter *models.CarSearchFilter) ([]*models.Car, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Car), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Upload(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, objectPath, reader, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Remove(ctx context.Context, objectPaths []string) error {
	args := m.Called(ctx, objectPaths)
	return args.Error(0)
}

func (m *MockStorageService) EnsureBucket(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorageService) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorageService) PathFromURL(publicURL string) (string, bool) {
	args := m.Called(publicURL)
	return args.String(0), args.Bool(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetCarList(ctx context.Context) ([]*models.Car, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Car), args.Error(1)
}

func (m *MockCacheService) SetCarList(ctx context.Context, cars []*models.Car, ttl time.Duration) error {
	args := m.Called(ctx, cars, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateCarList(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type CarServiceTestSuite struct {
	suite.Suite
	carRepo  *MockCarRepository
	userRepo *MockUserRepository
	storage  *MockStorageService
	cache    *MockCacheService
	service  CarService
	ctx      context.Context
	subject  string
	user     *models.User
}

func (suite *CarServiceTestSuite) SetupTest() {
	suite.carRepo = &MockCarRepository{}
	suite.userRepo = &MockUserRepository{}
	suite.storage = &MockStorageService{}
	suite.cache = &MockCacheService{}
	suite.service = NewCarService(suite.carRepo, suite.userRepo, suite.storage, suite.cache)
	suite.ctx = context.Background()
	suite.subject = "idp_user_123"
	suite.user = &models.User{ID: uuid.New(), Subject: suite.subject, Role: "admin"}
}

func (suite *CarServiceTestSuite) TearDownTest() {
	suite.carRepo.AssertExpectations(suite.T())
	suite.userRepo.AssertExpectations(suite.T())
	suite.storage.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
}

func TestCarServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CarServiceTestSuite))
}

func (suite *CarServiceTestSuite) expectKnownUser() {
	suite.userRepo.On("GetBySubject", suite.ctx, suite.subject).Return(suite.user, nil).Once()
}

func (suite *CarServiceTestSuite) TestCreateCar_PreservesImageOrder() {
	suite.expectKnownUser()

	images := []string{
		encodePayload("png", []byte("first image")),
		encodePayload("jpeg", []byte("second image")),
	}

	var uploadedPaths []string
	suite.storage.On("Upload", suite.ctx, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64"), "image/png").
		Run(func(args mock.Arguments) { uploadedPaths = append(uploadedPaths, args.String(1)) }).
		Return("https://cdn.example.com/car-images/a.png", nil).Once()
	suite.storage.On("Upload", suite.ctx, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64"), "image/jpeg").
		Run(func(args mock.Arguments) { uploadedPaths = append(uploadedPaths, args.String(1)) }).
		Return("https://cdn.example.com/car-images/b.jpeg", nil).Once()

	suite.carRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Car")).Return(nil).Once()
	suite.cache.On("InvalidateCarList", suite.ctx).Return(nil).Once()

	created, err := suite.service.CreateCar(suite.ctx, suite.subject, &models.Car{Make: "Honda", Model: "CR-V"}, images)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{
		"https://cdn.example.com/car-images/a.png",
		"https://cdn.example.com/car-images/b.jpeg",
	}, created.Images)
	assert.Equal(suite.T(), models.CarStatusAvailable, created.Status)
	assert.NotEqual(suite.T(), uuid.Nil, created.ID)

	// Both objects land in the same per-car folder.
	folder := "cars/" + created.ID.String() + "/"
	for _, path := range uploadedPaths {
		assert.True(suite.T(), strings.HasPrefix(path, folder), "path %s not under %s", path, folder)
	}
}

func (suite *CarServiceTestSuite) TestCreateCar_SkipsInvalidPayloads() {
	suite.expectKnownUser()

	images := []string{
		"https://example.com/not-embedded.jpg",
		encodePayload("png", []byte("only valid image")),
	}

	suite.storage.On("Upload", suite.ctx, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64"), "image/png").
		Return("https://cdn.example.com/car-images/only.png", nil).Once()
	suite.carRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Car")).Return(nil).Once()
	suite.cache.On("InvalidateCarList", suite.ctx).Return(nil).Once()

	created, err := suite.service.CreateCar(suite.ctx, suite.subject, &models.Car{Make: "Honda", Model: "CR-V"}, images)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"https://cdn.example.com/car-images/only.png"}, created.Images)
}

func (suite *CarServiceTestSuite) TestCreateCar_NoValidImagesFails() {
	suite.expectKnownUser()

	images := []string{"not an image", "https://example.com/car.jpg"}

	created, err := suite.service.CreateCar(suite.ctx, suite.subject, &models.Car{Make: "Honda", Model: "CR-V"}, images)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), created)

	appErr := common.AsAppError(err)
	assert.Equal(suite.T(), common.KindValidation, appErr.Kind)
	assert.Contains(suite.T(), appErr.Message, "no valid images")
}

func (suite *CarServiceTestSuite) TestCreateCar_InsertFailureCleansUpUploads() {
	suite.expectKnownUser()

	images := []string{encodePayload("png", []byte("image"))}

	suite.storage.On("Upload", suite.ctx, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64"), "image/png").
		Return("https://cdn.example.com/car-images/x.png", nil).Once()
	suite.carRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Car")).
		Return(errors.New("insert failed")).Once()
	suite.storage.On("Remove", suite.ctx, mock.MatchedBy(func(paths []string) bool {
		return len(paths) == 1 && strings.HasPrefix(paths[0], "cars/")
	})).Return(nil).Once()

	created, err := suite.service.CreateCar(suite.ctx, suite.subject, &models.Car{Make: "Honda", Model: "CR-V"}, images)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), created)
	assert.Equal(suite.T(), common.KindUpstream, common.AsAppError(err).Kind)
}

func (suite *CarServiceTestSuite) TestCreateCar_MissingSubjectUnauthorized() {
	created, err := suite.service.CreateCar(suite.ctx, "", &models.Car{Make: "Honda"}, nil)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), created)
	assert.Equal(suite.T(), common.KindUnauthorized, common.AsAppError(err).Kind)
}

func (suite *CarServiceTestSuite) TestCreateCar_UnknownUserUnauthorized() {
	suite.userRepo.On("GetBySubject", suite.ctx, suite.subject).
		Return(nil, pgx.ErrNoRows).Once()

	created, err := suite.service.CreateCar(suite.ctx, suite.subject, &models.Car{Make: "Honda"}, nil)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), created)
	assert.Equal(suite.T(), common.KindUnauthorized, common.AsAppError(err).Kind)
}

func (suite *CarServiceTestSuite) TestDeleteCar_SucceedsWhenStorageRemovalFails() {
	suite.expectKnownUser()

	carID := uuid.New()
	car := &models.Car{
		ID:     carID,
		Images: []string{"https://cdn.example.com/car-images/cars/x/a.png"},
	}

	suite.carRepo.On("GetByID", suite.ctx, carID).Return(car, nil).Once()
	suite.carRepo.On("Delete", suite.ctx, carID).Return(nil).Once()
	suite.storage.On("PathFromURL", car.Images[0]).Return("cars/x/a.png", true).Once()
	suite.storage.On("Remove", suite.ctx, []string{"cars/x/a.png"}).
		Return(errors.New("storage unavailable")).Once()
	suite.cache.On("InvalidateCarList", suite.ctx).Return(nil).Once()

	err := suite.service.DeleteCar(suite.ctx, suite.subject, carID)
	assert.NoError(suite.T(), err)
}

func (suite *CarServiceTestSuite) TestDeleteCar_NotFound() {
	suite.expectKnownUser()

	carID := uuid.New()
	suite.carRepo.On("GetByID", suite.ctx, carID).Return(nil, pgx.ErrNoRows).Once()

	err := suite.service.DeleteCar(suite.ctx, suite.subject, carID)
	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindNotFound, common.AsAppError(err).Kind)
}

func (suite *CarServiceTestSuite) TestUpdateCarStatus_PartialUpdate() {
	carID := uuid.New()
	featured := true
	update := &models.CarStatusUpdate{Featured: &featured}

	suite.carRepo.On("UpdateStatus", suite.ctx, carID, update).Return(nil).Once()
	suite.cache.On("InvalidateCarList", suite.ctx).Return(nil).Once()

	err := suite.service.UpdateCarStatus(suite.ctx, suite.subject, carID, update)
	assert.NoError(suite.T(), err)
}

func (suite *CarServiceTestSuite) TestUpdateCarStatus_RequiresSession() {
	err := suite.service.UpdateCarStatus(suite.ctx, "", uuid.New(), &models.CarStatusUpdate{})
	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindUnauthorized, common.AsAppError(err).Kind)
}

func (suite *CarServiceTestSuite) TestUpdateCarStatus_RejectsUnknownStatus() {
	status := models.CarStatus("PARKED")
	err := suite.service.UpdateCarStatus(suite.ctx, suite.subject, uuid.New(), &models.CarStatusUpdate{Status: &status})
	assert.Error(suite.T(), err)
	assert.Equal(suite.T(), common.KindValidation, common.AsAppError(err).Kind)
}

func (suite *CarServiceTestSuite) TestGetCars_EmptyFilterUsesCache() {
	cached := []*models.Car{{ID: uuid.New(), Make: "Toyota"}}
	suite.cache.On("GetCarList", suite.ctx).Return(cached, nil).Once()

	cars, err := suite.service.GetCars(suite.ctx, &models.CarSearchFilter{})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), cached, cars)
}

func (suite *CarServiceTestSuite) TestGetCars_CacheMissFallsThroughAndStores() {
	filter := &models.CarSearchFilter{}
	fromDB := []*models.Car{{ID: uuid.New(), Make: "Toyota"}}

	suite.cache.On("GetCarList", suite.ctx).Return(nil, nil).Once()
	suite.carRepo.On("Search", suite.ctx, filter).Return(fromDB, nil).Once()
	suite.cache.On("SetCarList", suite.ctx, fromDB, listingCacheTTL).Return(nil).Once()

	cars, err := suite.service.GetCars(suite.ctx, filter)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), fromDB, cars)
}

func (suite *CarServiceTestSuite) TestGetCars_CustomLimitBypassesCache() {
	filter := &models.CarSearchFilter{Limit: 2}
	fromDB := []*models.Car{
		{ID: uuid.New(), Make: "Toyota"},
		{ID: uuid.New(), Make: "Honda"},
	}

	suite.carRepo.On("Search", suite.ctx, filter).Return(fromDB, nil).Once()

	cars, err := suite.service.GetCars(suite.ctx, filter)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), cars, 2)
}

func (suite *CarServiceTestSuite) TestGetCars_EmptyStoreCachesEmptyList() {
	filter := &models.CarSearchFilter{}

	suite.cache.On("GetCarList", suite.ctx).Return(nil, nil).Once()
	suite.carRepo.On("Search", suite.ctx, filter).Return(nil, nil).Once()
	suite.cache.On("SetCarList", suite.ctx, mock.MatchedBy(func(cars []*models.Car) bool {
		return cars != nil && len(cars) == 0
	}), listingCacheTTL).Return(nil).Once()

	cars, err := suite.service.GetCars(suite.ctx, filter)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), cars)
	assert.Empty(suite.T(), cars)
}

func (suite *CarServiceTestSuite) TestGetCars_FilteredSearchBypassesCache() {
	filter := &models.CarSearchFilter{Query: "Toyota"}
	fromDB := []*models.Car{{ID: uuid.New(), Make: "Toyota"}}

	suite.carRepo.On("Search", suite.ctx, filter).Return(fromDB, nil).Once()

	cars, err := suite.service.GetCars(suite.ctx, filter)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), fromDB, cars)
}

func (suite *CarServiceTestSuite) TestListCars_RequiresKnownUser() {
	suite.userRepo.On("GetBySubject", suite.ctx, suite.subject).
		Return(nil, pgx.ErrNoRows).Once()

	cars, err := suite.service.ListCars(suite.ctx, suite.subject, &models.CarSearchFilter{})
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cars)
	assert.Equal(suite.T(), common.KindUnauthorized, common.AsAppError(err).Kind)
}
