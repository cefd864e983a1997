package handlers

import (
	"net/http"

	"motormart/internal/common"
	"motormart/internal/services"

	"github.com/labstack/echo/v4"
)

// SearchHandlers serves the customer-facing search surface: free-text
// listing search and AI image search.
type SearchHandlers struct {
	carService      services.CarService
	analysisService services.AnalysisService
}

func NewSearchHandlers(carService services.CarService, analysisService services.AnalysisService) *SearchHandlers {
	return &SearchHandlers{
		carService:      carService,
		analysisService: analysisService,
	}
}

// ListCars handles GET /cars — the public listing with optional search
// term and exact-match attribute filters.
func (h *SearchHandlers) ListCars(c echo.Context) error {
	cars, err := h.carService.GetCars(c.Request().Context(), searchFilterFromQuery(c))
	if err != nil {
		return common.SendAppError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    cars,
	})
}

// ImageSearch handles POST /search/image. On a successful extraction the
// response carries the listing query string the client should navigate
// to (make/bodyType/color, exact match).
func (h *SearchHandlers) ImageSearch(c echo.Context) error {
	ctx := c.Request().Context()

	data, mimeType, err := readImageUpload(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	result, err := h.analysisService.AnalyzeCarImage(ctx, data, mimeType)
	if err != nil {
		return common.SendAppError(c, err)
	}
	if !result.Success {
		return c.JSON(http.StatusOK, result)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result.Data,
		"query":   result.Data.SearchParams().Encode(),
	})
}
