package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, common.InvalidInput("invalid id")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, common.InvalidInputf("%s must be an integer", name)
	}
	return n, nil
}

// queryIntPtr is queryInt returning nil when the parameter is absent.
func queryIntPtr(r *http.Request, name string) (*int, error) {
	if strings.TrimSpace(r.URL.Query().Get(name)) == "" {
		return nil, nil
	}
	n, err := queryInt(r, name, 0)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func queryUUID(r *http.Request, name string) (uuid.UUID, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, common.InvalidInput("invalid id")
	}
	return id, nil
}

// parseGender accepts male/female, nam/nữ and boolean spellings; empty is male.
func parseGender(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "male", "m", "nam", "true", "1":
		return true, nil
	case "female", "f", "nữ", "nu", "false", "0":
		return false, nil
	}
	return false, common.InvalidInputf("unknown gender %q", v)
}
