package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"not found", NotFound("family"), codes.NotFound},
		{"wrapped invalid", fmt.Errorf("save: %w", InvalidInput("no members")), codes.InvalidArgument},
		{"conflict", Conflict("duplicate"), codes.AlreadyExists},
		{"unprocessable", Unprocessable("ocr", errors.New("no tessdata")), codes.FailedPrecondition},
		{"grpc status", status.Error(codes.Unavailable, "down"), codes.Unavailable},
		{"plain", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestHTTPStatusFromCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatusFromCode(codes.InvalidArgument))
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromCode(codes.NotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatusFromCode(codes.AlreadyExists))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatusFromCode(codes.FailedPrecondition))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromCode(codes.Internal))
}

func TestUnprocessableKeepsCause(t *testing.T) {
	cause := errors.New("tessdata missing")
	err := Unprocessable("ocr unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUnprocessable)
}

func TestToStatus(t *testing.T) {
	err := ToStatus(NotFound("family not found"))
	s, ok := status.FromError(err)
	assert.True(t, ok)
	assert.Equal(t, codes.NotFound, s.Code())
	assert.Equal(t, "family not found", s.Message())
	assert.NoError(t, ToStatus(nil))
}
