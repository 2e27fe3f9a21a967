// Package handler provides HTTP handlers for the AccessRoute API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/accessroute/accessroute/internal/access"
	"github.com/accessroute/accessroute/internal/api/models"
	"github.com/accessroute/accessroute/internal/api/response"
	"github.com/accessroute/accessroute/internal/geo"
	"github.com/accessroute/accessroute/internal/geocode"
	"github.com/accessroute/accessroute/internal/routing"
	"github.com/accessroute/accessroute/internal/trip"
	"github.com/accessroute/accessroute/internal/weather"
)

// TripHandler handles trip planning endpoints.
type TripHandler struct {
	planner *trip.Planner
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(planner *trip.Planner) *TripHandler {
	return &TripHandler{planner: planner}
}

// ComputeRoute handles POST /v1/routes - plan a route between two
// free-text endpoints.
func (h *TripHandler) ComputeRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if err := h.planner.RequestRoute(r.Context(), input.Start, input.Destination); err != nil {
		writeTripError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toTripResponse(h.planner.Snapshot()))
}

// GetTrip handles GET /v1/trip - the current trip view.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, toTripResponse(h.planner.Snapshot()))
}

// CancelTrip handles DELETE /v1/trip - stop the progress simulation.
func (h *TripHandler) CancelTrip(w http.ResponseWriter, r *http.Request) {
	h.planner.CancelTrip()
	response.NoContent(w, r)
}

func writeTripError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *trip.InputError
	if errors.As(err, &inputErr) {
		response.BadRequest(w, r, inputErr.Error(), []models.FieldError{
			{Field: string(inputErr.Field), Message: inputErr.Message},
		})
		return
	}

	var geoErr *trip.GeocodeError
	if errors.As(err, &geoErr) {
		if geoErr.NotFound() {
			response.NotFound(w, r, geoErr.Error())
			return
		}
		response.ServiceUnavailable(w, r, "geocoding is temporarily unavailable")
		return
	}

	var noRoute *trip.NoRouteError
	if errors.As(err, &noRoute) {
		response.NoRoute(w, r, noRoute.Error())
		return
	}

	if errors.Is(err, routing.ErrProviderUnavailable) || errors.Is(err, routing.ErrRateLimitExceeded) {
		response.ServiceUnavailable(w, r, "routing is temporarily unavailable")
		return
	}

	response.InternalError(w, r, "route planning failed")
}

func toTripResponse(snap trip.Snapshot) models.TripResponse {
	resp := models.TripResponse{
		Features: make([]models.FeatureResponse, 0, len(snap.Features)),
		Progress: models.ProgressResponse{
			State:                    string(snap.Progress.State),
			Fraction:                 snap.Progress.Fraction,
			RemainingDurationSeconds: snap.Progress.RemainingDurationSeconds,
			RemainingDistanceMeters:  snap.Progress.RemainingDistanceMeters,
		},
		Calculating: snap.Calculating,
		UpdatedAt:   snap.UpdatedAt,
	}

	if snap.Route != nil && snap.Start != nil && snap.Destination != nil {
		resp.Route = toRouteResponse(snap.Start, snap.Destination, snap.Route)
	}
	for _, f := range snap.Features {
		resp.Features = append(resp.Features, toFeatureResponse(f))
	}
	if snap.Weather != nil {
		weatherResp := toWeatherResponse(snap.Weather)
		resp.Weather = &weatherResp
	}
	if snap.LastError != nil {
		msg := snap.LastError.Error()
		resp.Error = &msg
	}

	return resp
}

// maxResponsePathPoints caps the point list in a route payload. The
// encoded polyline always carries the full geometry.
const maxResponsePathPoints = 500

func toRouteResponse(start, destination *geocode.Match, route *routing.Route) *models.RouteResponse {
	points := route.Path
	if len(points) > maxResponsePathPoints {
		interval := geo.PathLength(points) / float64(maxResponsePathPoints)
		points = geo.Sample(points, interval)
	}

	path := make([]models.Point, 0, len(points))
	for _, c := range points {
		path = append(path, toPoint(c))
	}

	return &models.RouteResponse{
		Start:           toEndpointResponse(start),
		Destination:     toEndpointResponse(destination),
		Path:            path,
		Geometry:        geo.EncodePolyline(route.Path),
		DurationSeconds: route.DurationSeconds,
		DistanceMeters:  route.DistanceMeters,
		Summary:         route.Summary,
		Provider:        route.Provider,
	}
}

func toEndpointResponse(match *geocode.Match) models.EndpointResponse {
	return models.EndpointResponse{
		Query:       match.Query,
		DisplayName: match.DisplayName,
		Point:       toPoint(match.Location),
	}
}

func toFeatureResponse(f access.Feature) models.FeatureResponse {
	return models.FeatureResponse{
		Type:        string(f.Type),
		Point:       toPoint(f.Location),
		Description: f.Description,
		Status:      string(f.Status),
		Rating:      f.Rating,
	}
}

func toWeatherResponse(snap *weather.Snapshot) models.WeatherResponse {
	return models.WeatherResponse{
		Lat:                snap.Lat,
		Lon:                snap.Lon,
		TemperatureCelsius: snap.TemperatureCelsius,
		Precipitation:      snap.Precipitation,
		Condition:          string(snap.Condition),
		ElevatedRisk:       snap.Condition.ElevatedRisk(),
		Description:        snap.Description,
		Icon:               snap.Icon,
		ObservedAt:         snap.ObservedAt,
	}
}

func toPoint(c geo.Coordinate) models.Point {
	return models.Point{Lat: c.Lat, Lon: c.Lon}
}
