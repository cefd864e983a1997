package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"motormart/internal/common"
	"motormart/internal/models"
	"motormart/internal/services"

	"github.com/labstack/echo/v4"
)

// maxAnalysisImageSize matches the upload limit enforced by the search UI.
const maxAnalysisImageSize = 5 * 1024 * 1024

// CarHandlers handles the admin listing-management endpoints.
type CarHandlers struct {
	carService      services.CarService
	analysisService services.AnalysisService
}

func NewCarHandlers(carService services.CarService, analysisService services.AnalysisService) *CarHandlers {
	return &CarHandlers{
		carService:      carService,
		analysisService: analysisService,
	}
}

type createCarRequest struct {
	Make         string   `json:"make"`
	Model        string   `json:"model"`
	Year         int      `json:"year"`
	Price        float64  `json:"price"`
	Mileage      int      `json:"mileage"`
	Color        string   `json:"color"`
	FuelType     string   `json:"fuelType"`
	Transmission string   `json:"transmission"`
	BodyType     string   `json:"bodyType"`
	Seats        *int     `json:"seats"`
	Description  string   `json:"description"`
	Status       string   `json:"status"`
	Featured     bool     `json:"featured"`
	Images       []string `json:"images"`
}

// CreateCar handles POST /admin/cars
func (h *CarHandlers) CreateCar(c echo.Context) error {
	ctx := c.Request().Context()
	subject := common.GetSubjectFromContext(ctx)

	var req createCarRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if strings.TrimSpace(req.Make) == "" || strings.TrimSpace(req.Model) == "" {
		return common.SendClientError(c, "Make and model are required")
	}
	if len(req.Images) == 0 {
		return common.SendClientError(c, "At least one image is required")
	}

	car := &models.Car{
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		Price:        req.Price,
		Mileage:      req.Mileage,
		Color:        req.Color,
		FuelType:     req.FuelType,
		Transmission: req.Transmission,
		BodyType:     req.BodyType,
		Seats:        req.Seats,
		Description:  req.Description,
		Status:       models.CarStatus(req.Status),
		Featured:     req.Featured,
	}

	created, err := h.carService.CreateCar(ctx, subject, car, req.Images)
	if err != nil {
		return common.SendAppError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    created,
	})
}

// ListCars handles GET /admin/cars
func (h *CarHandlers) ListCars(c echo.Context) error {
	ctx := c.Request().Context()
	subject := common.GetSubjectFromContext(ctx)

	cars, err := h.carService.ListCars(ctx, subject, searchFilterFromQuery(c))
	if err != nil {
		return common.SendAppError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    cars,
	})
}

// DeleteCar handles DELETE /admin/cars/:id
func (h *CarHandlers) DeleteCar(c echo.Context) error {
	ctx := c.Request().Context()
	subject := common.GetSubjectFromContext(ctx)

	id, err := common.ValidateUUID(c.Param("id"), "car id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.carService.DeleteCar(ctx, subject, id); err != nil {
		return common.SendAppError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

type updateCarStatusRequest struct {
	Status   *string `json:"status"`
	Featured *bool   `json:"featured"`
}

// UpdateCarStatus handles PATCH /admin/cars/:id/status
func (h *CarHandlers) UpdateCarStatus(c echo.Context) error {
	ctx := c.Request().Context()
	subject := common.GetSubjectFromContext(ctx)

	id, err := common.ValidateUUID(c.Param("id"), "car id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req updateCarStatusRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	update := &models.CarStatusUpdate{Featured: req.Featured}
	if req.Status != nil {
		status := models.CarStatus(*req.Status)
		update.Status = &status
	}

	if err := h.carService.UpdateCarStatus(ctx, subject, id, update); err != nil {
		return common.SendAppError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// AnalyzeCar handles POST /admin/cars/analyze. The extracted attributes
// pre-fill the car creation form.
func (h *CarHandlers) AnalyzeCar(c echo.Context) error {
	ctx := c.Request().Context()

	data, mimeType, err := readImageUpload(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	result, err := h.analysisService.AnalyzeCarImage(ctx, data, mimeType)
	if err != nil {
		return common.SendAppError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// searchFilterFromQuery builds the listing filter shared by the admin and
// public listing endpoints.
func searchFilterFromQuery(c echo.Context) *models.CarSearchFilter {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	return &models.CarSearchFilter{
		Query:    strings.TrimSpace(c.QueryParam("search")),
		Make:     strings.TrimSpace(c.QueryParam("make")),
		BodyType: strings.TrimSpace(c.QueryParam("bodyType")),
		Color:    strings.TrimSpace(c.QueryParam("color")),
		Limit:    limit,
		Offset:   offset,
	}
}

// readImageUpload pulls the "image" file out of a multipart form.
func readImageUpload(c echo.Context) ([]byte, string, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, "", errors.New("image file is required")
	}
	if fileHeader.Size > maxAnalysisImageSize {
		return nil, "", errors.New("image size must be less than 5MB")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAnalysisImageSize+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxAnalysisImageSize {
		return nil, "", errors.New("image size must be less than 5MB")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}
