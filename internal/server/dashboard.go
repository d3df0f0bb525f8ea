package server

import (
	"net/http"
	"strings"

	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
	"github.com/joseph-ayodele/anphuc-nienso/internal/lunar"
)

type lunarYearRequest struct {
	Year int `json:"year"`
}

type lunarYearResponse struct {
	Year int `json:"year"`
}

func (s *Server) handleGetLunarYear(w http.ResponseWriter, r *http.Request) {
	year, err := s.svc.Years.CurrentYear(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lunarYearResponse{Year: year})
}

func (s *Server) handleSetLunarYear(w http.ResponseWriter, r *http.Request) {
	var req lunarYearRequest
	if err := s.decode(w, r, schemaLunarYear, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Years.SetYear(r.Context(), req.Year); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log(r).Info("lunar year updated", "year", req.Year)
	writeJSON(w, http.StatusOK, lunarYearResponse{Year: req.Year})
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	year, err := queryIntPtr(r, "year")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Dashboard.Summary(r.Context(), year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaoHanStats(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Dashboard.SaoHanStats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type fortuneResponse struct {
	BirthYear int  `json:"birthYear"`
	IsMale    bool `json:"gender"`
	Year      int  `json:"year"`
	lunar.Fortune
}

// handleFortune computes Sao/Hạn for one person without touching the ledger.
// year defaults to the configured lunar year.
func (s *Server) handleFortune(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(r.URL.Query().Get("birthYear")) == "" {
		s.writeError(w, r, common.InvalidInput("birthYear is required"))
		return
	}
	birthYear, err := queryInt(r, "birthYear", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	isMale, err := parseGender(r.URL.Query().Get("gender"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	year, err := queryIntPtr(r, "year")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ref := 0
	if year != nil {
		ref = *year
	} else if ref, err = s.svc.Years.CurrentYear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fortuneResponse{
		BirthYear: birthYear,
		IsMale:    isMale,
		Year:      ref,
		Fortune:   lunar.ComputeBool(birthYear, isMale, ref),
	})
}
