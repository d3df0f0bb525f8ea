package server

import (
	"net/http"

	"github.com/joseph-ayodele/anphuc-nienso/internal/families"
)

func (s *Server) handleListFamilies(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", families.DefaultPageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Families.List(r.Context(), r.URL.Query().Get("search"), page, pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Families.Autocomplete(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFamilyDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	year, err := queryIntPtr(r, "year")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Families.Detail(r.Context(), id, year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	var in families.FamilyInput
	if err := s.decode(w, r, schemaFamily, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Families.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/families/"+out.ID.String())
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateFamily(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in families.FamilyInput
	if err := s.decode(w, r, schemaFamily, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Families.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteFamily(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Families.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in families.MemberInput
	if err := s.decode(w, r, schemaMember, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Families.AddMember(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	memberID, err := pathUUID(r, "memberId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in families.MemberInput
	if err := s.decode(w, r, schemaMember, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Families.UpdateMember(r.Context(), id, memberID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	memberID, err := pathUUID(r, "memberId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Families.DeleteMember(r.Context(), id, memberID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFamilyPrayerRecords(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", families.DefaultHistoryPageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Families.PrayerHistory(r.Context(), id, page, pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
