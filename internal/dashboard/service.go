// Package dashboard aggregates counts, donations and the Sao/Hạn
// distribution for the overview screen.
package dashboard

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/anphuc-nienso/constants"
	"github.com/joseph-ayodele/anphuc-nienso/internal/entity"
	"github.com/joseph-ayodele/anphuc-nienso/internal/lunar"
	"github.com/joseph-ayodele/anphuc-nienso/internal/repository"
	"github.com/joseph-ayodele/anphuc-nienso/internal/yearconfig"
)

// Summary reports totals for one year. CurrentYear is always the configured
// year, even when another year was requested.
type Summary struct {
	CurrentYear          int             `json:"currentYear"`
	FamilyCount          int             `json:"familyCount"`
	TotalMembers         int             `json:"totalMembers"`
	CauAnCount           int             `json:"cauAnCount"`
	CauSieuCount         int             `json:"cauSieuCount"`
	TotalCauAnDonation   decimal.Decimal `json:"totalCauAnDonation"`
	TotalCauSieuDonation decimal.Decimal `json:"totalCauSieuDonation"`
}

type DistributionItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SaoHanStats is the star and obstacle distribution for the configured year.
type SaoHanStats struct {
	SaoAlive      []DistributionItem `json:"saoAlive"`
	SaoDeceased   []DistributionItem `json:"saoDeceased"`
	HanAlive      []DistributionItem `json:"hanAlive"`
	HanDeceased   []DistributionItem `json:"hanDeceased"`
	TotalAlive    int                `json:"totalAlive"`
	TotalDeceased int                `json:"totalDeceased"`
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

// Summary counts records and donations for year, or the configured year when nil.
func (s *Service) Summary(ctx context.Context, year *int) (*Summary, error) {
	current, err := s.years.CurrentYear(ctx)
	if err != nil {
		return nil, err
	}
	filterYear := current
	if year != nil {
		filterYear = *year
	}

	out := &Summary{CurrentYear: current}
	if out.FamilyCount, err = s.families.Count(ctx); err != nil {
		return nil, err
	}
	if out.TotalMembers, err = s.members.Count(ctx); err != nil {
		return nil, err
	}

	an, err := s.records.Totals(ctx, entity.PrayerRecordFilter{Year: filterYear, Type: constants.CauAn})
	if err != nil {
		return nil, err
	}
	sieu, err := s.records.Totals(ctx, entity.PrayerRecordFilter{Year: filterYear, Type: constants.CauSieu})
	if err != nil {
		return nil, err
	}
	out.CauAnCount, out.TotalCauAnDonation = an.Count, an.Donation
	out.CauSieuCount, out.TotalCauSieuDonation = sieu.Count, sieu.Donation
	return out, nil
}

// SaoHanStats tallies every member's star and obstacle for the configured year.
func (s *Service) SaoHanStats(ctx context.Context) (*SaoHanStats, error) {
	year, err := s.years.CurrentYear(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.members.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	saoAlive, saoDead := map[string]int{}, map[string]int{}
	hanAlive, hanDead := map[string]int{}, map[string]int{}
	out := &SaoHanStats{}
	for _, m := range members {
		f := lunar.ComputeBool(m.BirthYear, m.IsMale, year)
		if m.IsAlive {
			out.TotalAlive++
			saoAlive[f.Star]++
			hanAlive[f.Obstacle]++
		} else {
			out.TotalDeceased++
			saoDead[f.Star]++
			hanDead[f.Obstacle]++
		}
	}
	out.SaoAlive = distribution(saoAlive)
	out.SaoDeceased = distribution(saoDead)
	out.HanAlive = distribution(hanAlive)
	out.HanDeceased = distribution(hanDead)

	s.logger.Debug("computed sao/han stats", "year", year, "alive", out.TotalAlive, "deceased", out.TotalDeceased)
	return out, nil
}

// distribution sorts by count descending, ties by name.
func distribution(counts map[string]int) []DistributionItem {
	out := make([]DistributionItem, 0, len(counts))
	for name, n := range counts {
		out = append(out, DistributionItem{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
