// Package imports turns pasted text or ledger photos into reviewable member
// candidates and saves the reviewed result.
package imports

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/anphuc-nienso/constants"
	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
	"github.com/joseph-ayodele/anphuc-nienso/internal/entity"
	"github.com/joseph-ayodele/anphuc-nienso/internal/ocr"
	"github.com/joseph-ayodele/anphuc-nienso/internal/pipeline/textextract"
	"github.com/joseph-ayodele/anphuc-nienso/internal/repository"
	"github.com/joseph-ayodele/anphuc-nienso/internal/yearconfig"
)

// TextRecognizer reads text from an encoded image.
type TextRecognizer interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Preview is the extraction result returned for operator review.
type Preview struct {
	ExtractedText string `json:"extractedText"`
	textextract.Result
}

// SaveRequest is the reviewed import. A nil or zero FamilyID creates a new family.
type SaveRequest struct {
	FamilyID            *uuid.UUID   `json:"familyId"`
	HeadOfHouseholdName *string      `json:"headOfHouseholdName"`
	Address             *string      `json:"address"`
	PhoneNumber         *string      `json:"phoneNumber"`
	Members             []SaveMember `json:"members"`
}

// SaveMember is a reviewed candidate. Unset fields take defaults on save;
// an unset IsAlive means living.
type SaveMember struct {
	Name       *string `json:"name"`
	BirthYear  *int    `json:"birthYear"`
	IsMale     *bool   `json:"gender"`
	DharmaName *string `json:"dharmaName"`
	IsAlive    *bool   `json:"isAlive"`
}

type SaveResult struct {
	FamilyID    uuid.UUID `json:"familyId"`
	MemberCount int       `json:"memberCount"`
}

type Service struct {
	families repository.FamilyRepository
	years    yearconfig.Provider
	ocr      TextRecognizer
	logger   *slog.Logger
}

func NewService(families repository.FamilyRepository, years yearconfig.Provider, recognizer TextRecognizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{families: families, years: years, ocr: recognizer, logger: logger}
}

// ProcessText extracts candidates from pasted text using the configured year.
func (s *Service) ProcessText(ctx context.Context, text string) (*Preview, error) {
	if strings.TrimSpace(text) == "" {
		return nil, common.InvalidInput("text body is empty")
	}
	return s.preview(ctx, text)
}

// ProcessImage runs OCR on image and extracts candidates from the result.
func (s *Service) ProcessImage(ctx context.Context, image []byte) (*Preview, error) {
	if len(image) == 0 {
		return nil, common.InvalidInput("no image file provided")
	}
	if s.ocr == nil {
		return nil, common.Unprocessable("ocr is not configured", ocr.ErrResourceUnavailable)
	}
	start := time.Now()
	text, err := s.ocr.ExtractText(ctx, image)
	if err != nil {
		switch {
		case errors.Is(err, ocr.ErrResourceUnavailable):
			return nil, common.Unprocessable("ocr resources are unavailable", err)
		case errors.Is(err, ocr.ErrEmptyImage), errors.Is(err, ocr.ErrUnsupportedFormat):
			return nil, common.NewAppError(common.CodeInvalidInput, "unsupported image", errors.Join(common.ErrInvalidInput, err))
		}
		s.logger.Error("ocr failed", "bytes", len(image), "error", err)
		return nil, common.WrapError(err, "ocr")
	}
	s.logger.Info("ocr completed", "bytes", len(image), "chars", len(text), "duration_ms", time.Since(start).Milliseconds())
	return s.preview(ctx, text)
}

func (s *Service) preview(ctx context.Context, text string) (*Preview, error) {
	year, err := s.years.CurrentYear(ctx)
	if err != nil {
		return nil, err
	}
	return &Preview{ExtractedText: text, Result: textextract.Extract(text, year)}, nil
}

// Save stores reviewed members under an existing family or a new one.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	if len(req.Members) == 0 {
		return nil, common.InvalidInput("no members to save")
	}
	members := make([]*entity.Member, 0, len(req.Members))
	for _, c := range req.Members {
		m := memberFromCandidate(c)
		if common.TooLong(m.Name, 200) {
			return nil, common.InvalidInput("member name must be at most 200 characters")
		}
		members = append(members, m)
	}

	if req.FamilyID != nil && *req.FamilyID != uuid.Nil {
		ok, err := s.families.Exists(ctx, *req.FamilyID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, common.NotFound("family not found")
		}
		if err := s.families.AddMembers(ctx, *req.FamilyID, members); err != nil {
			return nil, err
		}
		s.logger.Info("import saved", "family_id", *req.FamilyID, "members", len(members), "new_family", false)
		return &SaveResult{FamilyID: *req.FamilyID, MemberCount: len(members)}, nil
	}

	f := &entity.Family{
		HeadOfHouseholdName: headName(req.HeadOfHouseholdName, req.Members[0].Name),
		Address:             common.CleanOptional(req.Address),
		PhoneNumber:         common.CleanOptional(req.PhoneNumber),
	}
	switch {
	case common.TooLong(f.HeadOfHouseholdName, 200):
		return nil, common.InvalidInput("head of household name must be at most 200 characters")
	case f.Address != nil && common.TooLong(*f.Address, 500):
		return nil, common.InvalidInput("address must be at most 500 characters")
	case f.PhoneNumber != nil && common.TooLong(*f.PhoneNumber, 20):
		return nil, common.InvalidInput("phone number must be at most 20 characters")
	}
	if err := s.families.Create(ctx, f, members); err != nil {
		return nil, err
	}
	s.logger.Info("import saved", "family_id", f.ID, "members", len(members), "new_family", true)
	return &SaveResult{FamilyID: f.ID, MemberCount: len(members)}, nil
}

func headName(head, firstMember *string) string {
	for _, p := range []*string{head, firstMember} {
		if v := common.CleanOptional(p); v != nil {
			return *v
		}
	}
	return constants.UnknownName
}

// memberFromCandidate fills what extraction could not recognise: unknown
// name, birth year 0 and male.
func memberFromCandidate(c SaveMember) *entity.Member {
	m := &entity.Member{
		Name:       constants.UnknownName,
		IsMale:     true,
		DharmaName: common.CleanOptional(c.DharmaName),
		IsAlive:    c.IsAlive == nil || *c.IsAlive,
	}
	if v := common.CleanOptional(c.Name); v != nil {
		m.Name = *v
	}
	if c.BirthYear != nil {
		m.BirthYear = *c.BirthYear
	}
	if c.IsMale != nil {
		m.IsMale = *c.IsMale
	}
	return m
}
