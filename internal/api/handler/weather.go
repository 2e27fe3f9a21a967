package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/accessroute/accessroute/internal/api/models"
	"github.com/accessroute/accessroute/internal/api/response"
	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/trip"
	"github.com/accessroute/accessroute/internal/weather"
)

// WeatherHandler handles weather lookup endpoints.
type WeatherHandler struct {
	planner *trip.Planner
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(planner *trip.Planner) *WeatherHandler {
	return &WeatherHandler{planner: planner}
}

// GetCurrentWeather handles GET /v1/weather?lat=..&lon=.. - current weather
// for a location.
func (h *WeatherHandler) GetCurrentWeather(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		response.BadRequest(w, r, "lat and lon query parameters are required", []models.FieldError{
			{Field: "lat", Message: "must be a number"},
			{Field: "lon", Message: "must be a number"},
		})
		return
	}

	coord := geo.Coordinate{Lat: lat, Lon: lon}
	if err := coord.Validate(); err != nil {
		response.BadRequest(w, r, "coordinates out of range", nil)
		return
	}

	snap, err := h.planner.RequestCurrentWeather(r.Context(), coord)
	if err != nil {
		if errors.Is(err, weather.ErrInvalidCoordinates) {
			response.BadRequest(w, r, "coordinates out of range", nil)
			return
		}
		response.ServiceUnavailable(w, r, "weather data is temporarily unavailable")
		return
	}

	response.JSON(w, r, http.StatusOK, toWeatherResponse(snap))
}
