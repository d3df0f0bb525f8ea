// Package prayers manages yearly Cầu An / Cầu Siêu registrations and the
// printable ledgers built from them.
package prayers

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/anphuc-nienso/constants"
	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
	"github.com/joseph-ayodele/anphuc-nienso/internal/entity"
	"github.com/joseph-ayodele/anphuc-nienso/internal/lunar"
	"github.com/joseph-ayodele/anphuc-nienso/internal/repository"
	"github.com/joseph-ayodele/anphuc-nienso/internal/yearconfig"
)

const (
	DefaultPageSize = 20
	maxNotesLen     = 500
)

// ListResult is a page of records plus the donation total over every page.
type ListResult struct {
	entity.Page[entity.PrayerRecordView]
	TotalDonation decimal.Decimal `json:"totalDonation"`
}

type CreateInput struct {
	FamilyID       uuid.UUID        `json:"familyId"`
	Year           int              `json:"year"`
	Type           string           `json:"type"`
	DonationAmount *decimal.Decimal `json:"donationAmount"`
	Notes          *string          `json:"notes"`
}

type UpdateInput struct {
	DonationAmount *decimal.Decimal `json:"donationAmount"`
	Notes          *string          `json:"notes"`
}

type UpdateResult struct {
	ID             uuid.UUID        `json:"id"`
	DonationAmount *decimal.Decimal `json:"donationAmount"`
	Notes          *string          `json:"notes"`
}

// PrintMember is one line of a printed ledger.
type PrintMember struct {
	Name       string  `json:"name"`
	DharmaName *string `json:"dharmaName"`
	BirthYear  int     `json:"birthYear"`
	IsMale     bool    `json:"gender"`
	lunar.Fortune
}

// PrintItem is one family block of a printed ledger.
type PrintItem struct {
	ID             uuid.UUID        `json:"id"`
	FamilyID       uuid.UUID        `json:"familyId"`
	FamilyName     string           `json:"familyName"`
	FamilyAddress  *string          `json:"familyAddress"`
	DonationAmount *decimal.Decimal `json:"donationAmount"`
	Notes          *string          `json:"notes"`
	Members        []PrintMember    `json:"members"`
}

// PrintData is the printable ledger for one year and ceremony. CurrentYear is
// the reference year the fortunes were computed for.
type PrintData struct {
	Year        int                  `json:"year"`
	Type        constants.PrayerType `json:"type"`
	CurrentYear int                  `json:"currentYear"`
	Items       []PrintItem          `json:"items"`
}

type Service struct {
	records  repository.PrayerRecordRepository
	families repository.FamilyRepository
	members  repository.MemberRepository
	years    yearconfig.Provider
	logger   *slog.Logger
}

func NewService(
	records repository.PrayerRecordRepository,
	families repository.FamilyRepository,
	members repository.MemberRepository,
	years yearconfig.Provider,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, families: families, members: members, years: years, logger: logger}
}

// List pages through records filtered by year and type. year 0 and an empty
// type mean no filter.
func (s *Service) List(ctx context.Context, year int, typ string, page, pageSize int) (*ListResult, error) {
	filter := entity.PrayerRecordFilter{Year: year}
	if typ != "" {
		t, appErr := parseType(typ)
		if appErr != nil {
			return nil, appErr
		}
		filter.Type = t
	}
	page, pageSize = entity.ClampPaging(page, pageSize, DefaultPageSize)

	totals, err := s.records.Totals(ctx, filter)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = pageSize, entity.Offset(page, pageSize)
	items, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Page:          entity.NewPage(items, totals.Count, page, pageSize),
		TotalDonation: totals.Donation,
	}, nil
}

func (s *Service) YearSummaries(ctx context.Context) ([]entity.YearSummary, error) {
	return s.records.YearSummaries(ctx)
}

// Create registers a family for a ceremony. A family appears at most once per
// year and ceremony.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.PrayerRecordView, error) {
	t, appErr := parseType(in.Type)
	if appErr != nil {
		return nil, appErr
	}
	if in.Year < constants.MinRecordYear || in.Year > constants.MaxRecordYear {
		return nil, common.InvalidInputf("year must be between %d and %d", constants.MinRecordYear, constants.MaxRecordYear)
	}
	notes, appErr := cleanNotes(in.Notes)
	if appErr != nil {
		return nil, appErr
	}

	ok, err := s.families.Exists(ctx, in.FamilyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NotFound("family not found")
	}
	dup, err := s.records.Exists(ctx, in.Year, t, in.FamilyID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, common.Conflict("family is already registered for this year")
	}

	rec := &entity.PrayerRecord{
		FamilyID:       in.FamilyID,
		Year:           in.Year,
		Type:           t,
		DonationAmount: in.DonationAmount,
		Notes:          notes,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("prayer record created", "record_id", rec.ID, "family_id", rec.FamilyID, "year", rec.Year, "type", rec.Type)

	views, err := s.records.List(ctx, entity.PrayerRecordFilter{ID: rec.ID})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, common.NotFound("prayer record not found")
	}
	return &views[0], nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*UpdateResult, error) {
	notes, appErr := cleanNotes(in.Notes)
	if appErr != nil {
		return nil, appErr
	}
	if err := s.records.Update(ctx, id, in.DonationAmount, notes); err != nil {
		return nil, err
	}
	return &UpdateResult{ID: id, DonationAmount: in.DonationAmount, Notes: notes}, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.records.Delete(ctx, id)
}

// PrintData builds the ledger for year and typ. Cầu An lists living members,
// Cầu Siêu the deceased; each family is listed eldest first. recordID, when
// set, restricts the ledger to that one record.
func (s *Service) PrintData(ctx context.Context, year int, typ string, recordID uuid.UUID) (*PrintData, error) {
	t, appErr := parseType(typ)
	if appErr != nil {
		return nil, appErr
	}
	current, err := s.years.CurrentYear(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListForPrint(ctx, year, t, recordID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.FamilyID)
	}
	byFamily, err := s.members.ListByFamilies(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]PrintItem, 0, len(records))
	for _, r := range records {
		items = append(items, PrintItem{
			ID:             r.ID,
			FamilyID:       r.FamilyID,
			FamilyName:     r.FamilyName,
			FamilyAddress:  r.FamilyAddress,
			DonationAmount: r.DonationAmount,
			Notes:          r.Notes,
			Members:        printMembers(byFamily[r.FamilyID], t.ListsLiving(), current),
		})
	}
	return &PrintData{Year: year, Type: t, CurrentYear: current, Items: items}, nil
}

func printMembers(members []*entity.Member, living bool, year int) []PrintMember {
	selected := make([]*entity.Member, 0, len(members))
	for _, m := range members {
		if m.IsAlive == living {
			selected = append(selected, m)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].BirthYear < selected[j].BirthYear })

	out := make([]PrintMember, 0, len(selected))
	for _, m := range selected {
		out = append(out, PrintMember{
			Name:       m.Name,
			DharmaName: m.DharmaName,
			BirthYear:  m.BirthYear,
			IsMale:     m.IsMale,
			Fortune:    lunar.ComputeBool(m.BirthYear, m.IsMale, year),
		})
	}
	return out
}

func parseType(s string) (constants.PrayerType, *common.AppError) {
	t, ok := constants.ParsePrayerType(s)
	if !ok {
		return "", common.InvalidInputf("type must be %s or %s", constants.CauAn, constants.CauSieu)
	}
	return t, nil
}

func cleanNotes(notes *string) (*string, *common.AppError) {
	n := common.CleanOptional(notes)
	if n != nil && common.TooLong(*n, maxNotesLen) {
		return nil, common.InvalidInputf("notes must be at most %d characters", maxNotesLen)
	}
	return n, nil
}
