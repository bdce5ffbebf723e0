package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
	"github.com/couchcryptid/gear-smarts-service/internal/version"
)

type datasetResponse struct {
	Dataset []domain.LabeledRow `json:"dataset"`
}

type classifyResponse struct {
	Classification *string `json:"classification"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	features, err := parseFeatures(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	dataset, err := s.deps.ML.Train(r.Context(), r.PathValue("namespace"), r.PathValue("classification"), features)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, datasetResponse{Dataset: dataset})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	features, err := parseFeatures(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	label, err := s.deps.ML.Classify(r.Context(), r.PathValue("namespace"), features)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := classifyResponse{}
	if label != "" {
		resp.Classification = &label
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	dataset, err := s.deps.ML.Dump(r.Context(), r.PathValue("namespace"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, datasetResponse{Dataset: dataset})
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.deps.Weather == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "weather proxy is disabled"})
		return
	}

	q := r.URL.Query()
	query := domain.WeatherQuery{
		City:    q.Get("city"),
		State:   q.Get("state"),
		Country: q.Get("country"),
	}
	if d := strings.TrimSpace(q.Get("date")); d != "" {
		date, err := domain.ParseWeatherDate(d)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		query.Date = &date
	}

	body, err := domain.GetWeather(r.Context(), s.deps.Weather, query)
	if err != nil {
		if !errors.Is(err, domain.ErrBadArguments) {
			s.logger.Warn("weather lookup failed", "location", query.Location(), "error", err)
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client may have gone away
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Get(s.opts.DeployVersion))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadArguments):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNamespaceNotTrained):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrClassifierOperation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
