package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaBaseURL = "https://anphuc-nienso.local/schemas/"
	maxJSONBody   = 1 << 20
)

const (
	schemaFamily             = "family.json"
	schemaMember             = "member.json"
	schemaImportSave         = "import-save.json"
	schemaPrayerRecord       = "prayer-record.json"
	schemaPrayerRecordUpdate = "prayer-record-update.json"
	schemaLunarYear          = "lunar-year.json"
)

// compileSchemas loads every embedded request schema.
func compileSchemas() (map[string]*jsonschema.Schema, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	for _, e := range entries {
		b, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, err
		}
		if err := compiler.AddResource(schemaBaseURL+e.Name(), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", e.Name(), err)
		}
	}
	out := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		s, err := compiler.Compile(schemaBaseURL + e.Name())
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", e.Name(), err)
		}
		out[e.Name()] = s
	}
	return out, nil
}

// decode reads a JSON body, checks it against the named schema and
// unmarshals it into dst. An empty schema name skips validation.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schemaName string, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return common.InvalidInput("invalid request body")
	}
	if schemaName != "" {
		sch, ok := s.schemas[schemaName]
		if !ok {
			return fmt.Errorf("unknown schema %q", schemaName)
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err != nil {
			return common.InvalidInput("invalid request body")
		}
		if err := sch.Validate(doc); err != nil {
			return common.InvalidInput(validationDetail(err))
		}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return common.InvalidInput("invalid request body")
	}
	return nil
}

// validationDetail reports the deepest cause of a schema failure.
func validationDetail(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}
