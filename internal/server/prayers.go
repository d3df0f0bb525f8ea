package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
	"github.com/joseph-ayodele/anphuc-nienso/internal/prayers"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleListPrayerRecords(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", prayers.DefaultPageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Prayers.List(r.Context(), year, r.URL.Query().Get("type"), page, pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePrayerSummary(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Prayers.YearSummaries(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePrayerRecord(w http.ResponseWriter, r *http.Request) {
	var in prayers.CreateInput
	if err := s.decode(w, r, schemaPrayerRecord, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Prayers.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdatePrayerRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in prayers.UpdateInput
	if err := s.decode(w, r, schemaPrayerRecordUpdate, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Prayers.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeletePrayerRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Prayers.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type printQuery struct {
	year     int
	typ      string
	recordID uuid.UUID
}

func parsePrintQuery(r *http.Request) (printQuery, error) {
	var q printQuery
	ys := strings.TrimSpace(r.URL.Query().Get("year"))
	if ys == "" {
		return q, common.InvalidInput("year is required")
	}
	year, err := strconv.Atoi(ys)
	if err != nil {
		return q, common.InvalidInput("year must be an integer")
	}
	id, err := queryUUID(r, "recordId")
	if err != nil {
		return q, err
	}
	q.year, q.typ, q.recordID = year, r.URL.Query().Get("type"), id
	return q, nil
}

func (s *Server) handlePrintData(w http.ResponseWriter, r *http.Request) {
	q, err := parsePrintQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Prayers.PrintData(r.Context(), q.year, q.typ, q.recordID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePrintDataXLSX(w http.ResponseWriter, r *http.Request) {
	q, err := parsePrintQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.Export.ExportPrintDataXLSX(r.Context(), q.year, q.typ, q.recordID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("so-%s-%d.xlsx", strings.ToLower(q.typ), q.year)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
