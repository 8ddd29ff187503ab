package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/chrisdamba/orderly/internal/catalog"
	"github.com/chrisdamba/orderly/internal/classifier"
	"github.com/chrisdamba/orderly/internal/features"
	"github.com/chrisdamba/orderly/internal/inference"
	"github.com/chrisdamba/orderly/internal/logging"
	"github.com/chrisdamba/orderly/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	maxBodyBytes      = 1 << 20
	recentPredictions = 10
)

var endpoints = map[string]string{
	"predict":            "/predict",
	"analyze":            "/analyze",
	"recommendations":    "/recommendations",
	"customers":          "/customers",
	"feature-importance": "/feature-importance",
	"stats":              "/stats",
	"menu":               "/menu/{vendor_id}/{city}",
}

func (rt *Router) home(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"message":   "Orderly Backend API is running!",
		"status":    "active",
		"endpoints": endpoints,
	})
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody unmarshals the request body into v. An empty body leaves v
// untouched so every field keeps its default.
func decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func (rt *Router) predict(w http.ResponseWriter, r *http.Request) {
	var req inference.Request
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := rt.deps.Predictor.Predict(r.Context(), req)
	if err != nil {
		var inferr *inference.Error
		switch {
		case errors.Is(err, classifier.ErrModelUnavailable):
			logging.Ctx(r.Context()).Warn().Err(err).Msg("prediction without a model")
			respondError(w, r, http.StatusServiceUnavailable, "Model not available")
		case errors.As(err, &inferr) && inferr.InvalidInput():
			respondError(w, r, http.StatusBadRequest, err.Error())
		default:
			respondError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, rt.deps.Analytics.Summarize(r.Context()))
}

func (rt *Router) featureImportance(w http.ResponseWriter, r *http.Request) {
	model, err := rt.deps.Models.Get(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("feature importance without a model")
		respondError(w, r, http.StatusServiceUnavailable, "Model not available")
		return
	}
	importances := model.FeatureImportances()
	if len(importances) != features.NumFeatures {
		respondError(w, r, http.StatusInternalServerError, "model reports "+strconv.Itoa(len(importances))+" feature importances")
		return
	}

	out := make([]models.FeatureImportance, 0, features.NumFeatures)
	for i, name := range features.DisplayNames {
		out = append(out, models.FeatureImportance{Feature: name, Importance: importances[i]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	respondJSON(w, r, http.StatusOK, out)
}

type statsResponse struct {
	TotalPredictions  int                       `json:"total_predictions"`
	RecentPredictions []models.PredictionRecord `json:"recent_predictions"`
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	recent := rt.deps.History.Recent(recentPredictions)
	if recent == nil {
		recent = []models.PredictionRecord{}
	}
	respondJSON(w, r, http.StatusOK, statsResponse{
		TotalPredictions:  rt.deps.History.Len(),
		RecentPredictions: recent,
	})
}

func (rt *Router) recommendations(w http.ResponseWriter, r *http.Request) {
	req := catalog.DefaultRecommendRequest()
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := rt.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			respondError(w, r, http.StatusBadRequest, "invalid "+verrs[0].Field()+": failed "+verrs[0].Tag()+" check")
			return
		}
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, r, http.StatusOK, rt.deps.Recommender.Recommend(req))
}

func (rt *Router) customers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{"data": rt.deps.Catalog.Customers()})
}

func (rt *Router) menu(w http.ResponseWriter, r *http.Request) {
	vendorID, err := strconv.Atoi(chi.URLParam(r, "vendor_id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "vendor_id must be an integer")
		return
	}
	city := chi.URLParam(r, "city")
	respondJSON(w, r, http.StatusOK, map[string]interface{}{"menu": rt.deps.Catalog.Menu(vendorID, city)})
}

func (rt *Router) reload(w http.ResponseWriter, r *http.Request) {
	batch, err := rt.deps.Reloader.Reload(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	logging.Ctx(r.Context()).Info().Int("rows", batch.Len()).Msg("dataset reloaded")
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"rows":      batch.Len(),
		"loaded_at": batch.LoadedAt,
	})
}
