package handler

import (
	"encoding/json"
	"net/http"

	"github.com/accessroute/accessroute/internal/api/models"
	"github.com/accessroute/accessroute/internal/api/response"
	"github.com/accessroute/accessroute/internal/routing"
	"github.com/accessroute/accessroute/internal/trip"
)

// PreferencesHandler handles accessibility preference endpoints.
type PreferencesHandler struct {
	planner *trip.Planner
}

// NewPreferencesHandler creates a new PreferencesHandler.
func NewPreferencesHandler(planner *trip.Planner) *PreferencesHandler {
	return &PreferencesHandler{planner: planner}
}

// GetPreferences handles GET /v1/preferences.
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, toPreferencesModel(h.planner.Preferences()))
}

// UpdatePreferences handles PUT /v1/preferences. The active route is not
// recomputed; new preferences apply from the next request.
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var input models.PreferencesModel
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrs := validatePreferences(input); len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid preferences", fieldErrs)
		return
	}

	h.planner.SetPreferences(routing.Preferences{
		MaxSlopePercent:   input.MaxSlopePercent,
		PreferredSurfaces: input.PreferredSurfaces,
		AvoidStairs:       input.AvoidStairs,
		RequireElevators:  input.RequireElevators,
		MinPathWidthCm:    input.MinPathWidthCm,
	})

	response.JSON(w, r, http.StatusOK, toPreferencesModel(h.planner.Preferences()))
}

func validatePreferences(input models.PreferencesModel) []models.FieldError {
	var errs []models.FieldError
	if input.MaxSlopePercent < 0 || input.MaxSlopePercent > 100 {
		errs = append(errs, models.FieldError{Field: "maxSlopePercent", Message: "must be between 0 and 100"})
	}
	if input.MinPathWidthCm < 0 {
		errs = append(errs, models.FieldError{Field: "minPathWidthCm", Message: "must not be negative"})
	}
	return errs
}

func toPreferencesModel(prefs routing.Preferences) models.PreferencesModel {
	surfaces := prefs.PreferredSurfaces
	if surfaces == nil {
		surfaces = []string{}
	}
	return models.PreferencesModel{
		MaxSlopePercent:   prefs.MaxSlopePercent,
		PreferredSurfaces: surfaces,
		AvoidStairs:       prefs.AvoidStairs,
		RequireElevators:  prefs.RequireElevators,
		MinPathWidthCm:    prefs.MinPathWidthCm,
	}
}
