package server

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/typegait/typegait/internal/features"
	"github.com/typegait/typegait/internal/models"
)

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req models.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if len(req.Events) == 0 {
		s.respondError(w, http.StatusBadRequest, "events are required")
		return
	}
	s.logger.Debug("enroll request", zap.String("user_id", req.UserID), zap.Int("events", len(req.Events)))

	fv := features.Extract(req.Events, req.Text)
	count, err := s.storage.AppendSample(r.Context(), req.UserID, fv)
	if err != nil {
		s.logger.Error("append sample failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Refit normalization over the full enrollment set and persist the model
	// so a restarted process scores against the same parameters.
	users, err := s.storage.AllUsers(r.Context())
	if err != nil {
		s.logger.Error("load users failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.engine.Train(users)
	if blob, err := s.engine.ExportModel(); err == nil {
		if err := s.storage.SaveModel(r.Context(), blob); err != nil {
			s.logger.Warn("failed to persist model", zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.EnrollTotal.Inc()
		s.refreshGauges(r)
	}
	s.respondJSON(w, http.StatusCreated, models.EnrollResponse{
		UserID:       req.UserID,
		SamplesCount: count,
	})
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	var req models.IdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Events) == 0 {
		s.respondError(w, http.StatusBadRequest, "events are required")
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.config.Identify.DefaultTopK
	}
	if topK > s.config.Identify.MaxTopK {
		topK = s.config.Identify.MaxTopK
	}
	s.logger.Debug("identify request", zap.Int("events", len(req.Events)), zap.Int("top_k", topK))

	start := time.Now()
	fv := features.Extract(req.Events, req.Text)
	users, err := s.storage.AllUsers(r.Context())
	if err != nil {
		s.logger.Error("load users failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	matches := s.engine.Identify(fv, users, topK)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.IdentifyTotal.Inc()
		s.metrics.IdentifyDuration.Observe(elapsed.Seconds())
	}
	s.respondJSON(w, http.StatusOK, models.IdentifyResponse{
		Matches:   matches,
		Total:     len(matches),
		QueryTime: elapsed.Milliseconds(),
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.storage.ListUsers(r.Context())
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if users == nil {
		users = []*models.UserSummary{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := s.storage.GetUser(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "user not found")
		return
	}
	s.respondJSON(w, http.StatusOK, userDetail(user))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userCount, err := s.storage.CountUsers(r.Context())
	if err != nil {
		s.logger.Error("stats: count users failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sampleCount, err := s.storage.CountSamples(r.Context())
	if err != nil {
		s.logger.Error("stats: count samples failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	avg := 0.0
	if userCount > 0 {
		avg = float64(sampleCount) / float64(userCount)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total_users":          userCount,
		"total_samples":        sampleCount,
		"avg_samples_per_user": avg,
		"model_fitted":         s.engine.Fitted(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fieldStats summarizes one feature dimension across a user's samples.
type fieldStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Std  float64 `json:"std"`
	Mean float64 `json:"mean"`
}

// userDetail builds the per-user view: sample-averaged features, per-field
// variation stats, and the raw diagnostic arrays from the latest sample.
func userDetail(user *models.UserRecord) map[string]interface{} {
	averaged := make(map[string]float64, len(models.FeatureNames))
	variation := make(map[string]fieldStats)

	if n := len(user.Samples); n > 0 {
		columns := make([][]float64, len(models.FeatureNames))
		for _, sample := range user.Samples {
			for d, value := range sample.Vector() {
				columns[d] = append(columns[d], value)
			}
		}
		for d, name := range models.FeatureNames {
			averaged[name] = meanOf(columns[d])
			if n > 1 {
				lo, hi := minMaxOf(columns[d])
				variation[name] = fieldStats{
					Min:  lo,
					Max:  hi,
					Std:  stdOf(columns[d]),
					Mean: averaged[name],
				}
			}
		}
	}

	detail := map[string]interface{}{
		"id":                user.ID,
		"samples_count":     len(user.Samples),
		"created_at":        user.CreatedAt,
		"updated_at":        user.UpdatedAt,
		"averaged_features": averaged,
		"variation_stats":   variation,
	}
	if n := len(user.Samples); n > 0 {
		detail["raw_dwell_times"] = user.Samples[n-1].RawDwellTimes
		detail["raw_latencies"] = user.Samples[n-1].RawLatencies
	}
	return detail
}

func (s *Server) refreshGauges(r *http.Request) {
	if userCount, err := s.storage.CountUsers(r.Context()); err == nil {
		s.metrics.EnrolledUsers.Set(float64(userCount))
	}
	if sampleCount, err := s.storage.CountSamples(r.Context()); err == nil {
		s.metrics.StoredSamples.Set(float64(sampleCount))
	}
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := meanOf(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

func minMaxOf(xs []float64) (float64, float64) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
