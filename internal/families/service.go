// Package families manages households and their members.
package families

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/anphuc-nienso/constants"
	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
	"github.com/joseph-ayodele/anphuc-nienso/internal/entity"
	"github.com/joseph-ayodele/anphuc-nienso/internal/repository"
	"github.com/joseph-ayodele/anphuc-nienso/internal/yearconfig"
)

const (
	DefaultPageSize        = 18
	DefaultHistoryPageSize = 10

	maxNameLen    = 200
	maxAddressLen = 500
	maxPhoneLen   = 20
)

// FamilyInput carries the editable household fields.
type FamilyInput struct {
	HeadOfHouseholdName string        `json:"headOfHouseholdName"`
	Address             *string       `json:"address"`
	PhoneNumber         *string       `json:"phoneNumber"`
	Members             []MemberInput `json:"members,omitempty"`
}

// MemberInput carries the editable member fields.
type MemberInput struct {
	Name       string  `json:"name"`
	BirthYear  int     `json:"birthYear"`
	IsMale     bool    `json:"gender"`
	DharmaName *string `json:"dharmaName"`
	IsAlive    bool    `json:"isAlive"`
}

// UnmarshalJSON defaults gender to male and isAlive to true when absent.
func (m *MemberInput) UnmarshalJSON(b []byte) error {
	type plain MemberInput
	v := plain{IsMale: true, IsAlive: true}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*m = MemberInput(v)
	return nil
}

// Detail is a family with fortune-annotated members for Year.
type Detail struct {
	entity.Family
	Year    int                 `json:"year"`
	Members []entity.MemberView `json:"members"`
}

type Service struct {
	families repository.FamilyRepository
	members  repository.MemberRepository
	records  repository.PrayerRecordRepository
	years    yearconfig.Provider
	logger   *slog.Logger
}

func NewService(
	families repository.FamilyRepository,
	members repository.MemberRepository,
	records repository.PrayerRecordRepository,
	years yearconfig.Provider,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{families: families, members: members, records: records, years: years, logger: logger}
}

func (s *Service) List(ctx context.Context, search string, page, pageSize int) (entity.Page[entity.FamilySummary], error) {
	page, pageSize = entity.ClampPaging(page, pageSize, DefaultPageSize)
	items, total, err := s.families.List(ctx, entity.FamilyFilter{
		Search: strings.TrimSpace(search),
		Limit:  pageSize,
		Offset: entity.Offset(page, pageSize),
	})
	if err != nil {
		return entity.Page[entity.FamilySummary]{}, err
	}
	return entity.NewPage(items, total, page, pageSize), nil
}

func (s *Service) Autocomplete(ctx context.Context, q string) ([]entity.FamilySummary, error) {
	return s.families.Autocomplete(ctx, q)
}

// Detail loads a family. year overrides the configured reference year when non-nil.
func (s *Service) Detail(ctx context.Context, id uuid.UUID, year *int) (*Detail, error) {
	f, err := s.families.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	y, err := s.referenceYear(ctx, year)
	if err != nil {
		return nil, err
	}
	members, err := s.members.ListByFamily(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildDetail(f, members, y), nil
}

func (s *Service) Create(ctx context.Context, in FamilyInput) (*Detail, error) {
	f, appErr := familyFromInput(in)
	if appErr != nil {
		return nil, appErr
	}
	members := make([]*entity.Member, 0, len(in.Members))
	for i, mi := range in.Members {
		m, appErr := memberFromInput(mi)
		if appErr != nil {
			return nil, common.InvalidInputf("member %d: %s", i+1, appErr.Message)
		}
		members = append(members, m)
	}
	if err := s.families.Create(ctx, f, members); err != nil {
		return nil, err
	}
	y, err := s.years.CurrentYear(ctx)
	if err != nil {
		return nil, err
	}
	return buildDetail(f, members, y), nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in FamilyInput) (*Detail, error) {
	f, appErr := familyFromInput(in)
	if appErr != nil {
		return nil, appErr
	}
	f.ID = id
	if err := s.families.Update(ctx, f); err != nil {
		return nil, err
	}
	return s.Detail(ctx, id, nil)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.families.Delete(ctx, id)
}

func (s *Service) AddMember(ctx context.Context, familyID uuid.UUID, in MemberInput) (*entity.MemberView, error) {
	m, appErr := memberFromInput(in)
	if appErr != nil {
		return nil, appErr
	}
	ok, err := s.families.Exists(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NotFound("family not found")
	}
	m.FamilyID = familyID
	if err := s.members.Add(ctx, m); err != nil {
		return nil, err
	}
	return s.view(ctx, m)
}

func (s *Service) UpdateMember(ctx context.Context, familyID, memberID uuid.UUID, in MemberInput) (*entity.MemberView, error) {
	m, appErr := memberFromInput(in)
	if appErr != nil {
		return nil, appErr
	}
	m.ID = memberID
	m.FamilyID = familyID
	if err := s.members.Update(ctx, m); err != nil {
		return nil, err
	}
	return s.view(ctx, m)
}

func (s *Service) DeleteMember(ctx context.Context, familyID, memberID uuid.UUID) error {
	return s.members.Delete(ctx, familyID, memberID)
}

// PrayerHistory pages through a family's records, newest year first.
func (s *Service) PrayerHistory(ctx context.Context, familyID uuid.UUID, page, pageSize int) (entity.Page[entity.PrayerRecordView], error) {
	var empty entity.Page[entity.PrayerRecordView]
	ok, err := s.families.Exists(ctx, familyID)
	if err != nil {
		return empty, err
	}
	if !ok {
		return empty, common.NotFound("family not found")
	}
	page, pageSize = entity.ClampPaging(page, pageSize, DefaultHistoryPageSize)
	filter := entity.PrayerRecordFilter{FamilyID: familyID}
	totals, err := s.records.Totals(ctx, filter)
	if err != nil {
		return empty, err
	}
	filter.Limit, filter.Offset = pageSize, entity.Offset(page, pageSize)
	items, err := s.records.List(ctx, filter)
	if err != nil {
		return empty, err
	}
	return entity.NewPage(items, totals.Count, page, pageSize), nil
}

func (s *Service) view(ctx context.Context, m *entity.Member) (*entity.MemberView, error) {
	y, err := s.years.CurrentYear(ctx)
	if err != nil {
		return nil, err
	}
	v := entity.Annotate(m, y)
	return &v, nil
}

func (s *Service) referenceYear(ctx context.Context, override *int) (int, error) {
	if override != nil {
		return *override, nil
	}
	return s.years.CurrentYear(ctx)
}

func buildDetail(f *entity.Family, members []*entity.Member, year int) *Detail {
	views := make([]entity.MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, entity.Annotate(m, year))
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return &Detail{Family: *f, Year: year, Members: views}
}

func familyFromInput(in FamilyInput) (*entity.Family, *common.AppError) {
	f := &entity.Family{
		HeadOfHouseholdName: common.CleanText(in.HeadOfHouseholdName),
		Address:             common.CleanOptional(in.Address),
		PhoneNumber:         common.CleanOptional(in.PhoneNumber),
	}
	switch {
	case f.HeadOfHouseholdName == "":
		return nil, common.InvalidInput("head of household name is required")
	case common.TooLong(f.HeadOfHouseholdName, maxNameLen):
		return nil, common.InvalidInputf("head of household name must be at most %d characters", maxNameLen)
	case f.Address != nil && common.TooLong(*f.Address, maxAddressLen):
		return nil, common.InvalidInputf("address must be at most %d characters", maxAddressLen)
	case f.PhoneNumber != nil && common.TooLong(*f.PhoneNumber, maxPhoneLen):
		return nil, common.InvalidInputf("phone number must be at most %d characters", maxPhoneLen)
	}
	return f, nil
}

func memberFromInput(in MemberInput) (*entity.Member, *common.AppError) {
	m := &entity.Member{
		Name:       common.CleanText(in.Name),
		BirthYear:  in.BirthYear,
		IsMale:     in.IsMale,
		DharmaName: common.CleanOptional(in.DharmaName),
		IsAlive:    in.IsAlive,
	}
	switch {
	case m.Name == "":
		return nil, common.InvalidInput("member name is required")
	case common.TooLong(m.Name, maxNameLen):
		return nil, common.InvalidInputf("member name must be at most %d characters", maxNameLen)
	case m.DharmaName != nil && common.TooLong(*m.DharmaName, maxNameLen):
		return nil, common.InvalidInputf("dharma name must be at most %d characters", maxNameLen)
	case m.BirthYear < constants.MinMemberBirthYear || m.BirthYear > constants.MaxMemberBirthYear:
		return nil, common.InvalidInputf("birth year must be between %d and %d", constants.MinMemberBirthYear, constants.MaxMemberBirthYear)
	}
	return m, nil
}
