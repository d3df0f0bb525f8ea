package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
	"github.com/joseph-ayodele/anphuc-nienso/internal/imports"
)

// multipart envelope allowance on top of the file itself
const multipartOverhead = 1 << 20

type processTextRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleProcessText(w http.ResponseWriter, r *http.Request) {
	var req processTextRequest
	if err := s.decode(w, r, "", &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Imports.ProcessText(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, common.InvalidInput("file too large"))
			return
		}
		s.writeError(w, r, common.InvalidInput("no image file provided"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, common.InvalidInput("no image file provided"))
		return
	}
	defer file.Close()
	if header.Size > limit {
		s.writeError(w, r, common.InvalidInput("file too large"))
		return
	}
	image, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if int64(len(image)) > limit {
		s.writeError(w, r, common.InvalidInput("file too large"))
		return
	}

	s.log(r).Debug("ocr upload received", "filename", header.Filename, "bytes", len(image))
	out, err := s.svc.Imports.ProcessImage(r.Context(), image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleImportSave(w http.ResponseWriter, r *http.Request) {
	var req imports.SaveRequest
	if err := s.decode(w, r, schemaImportSave, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.Imports.Save(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
