package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paaavkata/stock-dashboard/internal/analysis"
	"github.com/paaavkata/stock-dashboard/internal/marketdata"
	"github.com/paaavkata/stock-dashboard/internal/news"
	"github.com/paaavkata/stock-dashboard/pkg/apperrors"
)

type response struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	IsDummy  bool        `json:"isDummy,omitempty"`
	Analysis interface{} `json:"analysis,omitempty"`
	Error    string      `json:"error,omitempty"`
}

var errBadRequest = errors.New("bad request")

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

func (s *Server) writeData(w http.ResponseWriter, data interface{}, dummy bool) {
	s.writeJSON(w, http.StatusOK, response{Success: true, Data: data, IsDummy: dummy})
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, response{Success: false, Error: message})
}

// writeFailure maps a service error to a status code.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	s.writeError(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, marketdata.ErrInvalidDateRange),
		errors.Is(err, news.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case apperrors.IsConfiguration(err):
		return http.StatusInternalServerError
	case apperrors.IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
