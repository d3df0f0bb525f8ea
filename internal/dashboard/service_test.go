package dashboard

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/anphuc-nienso/constants"
	"github.com/joseph-ayodele/anphuc-nienso/internal/entity"
	"github.com/joseph-ayodele/anphuc-nienso/internal/lunar"
	"github.com/joseph-ayodele/anphuc-nienso/internal/repository"
	"github.com/joseph-ayodele/anphuc-nienso/internal/yearconfig"
)

func setup(t *testing.T) (*Service, repository.FamilyRepository, repository.PrayerRecordRepository) {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "dashboard.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	families := repository.NewFamilyRepository(db, nil)
	records := repository.NewPrayerRecordRepository(db, nil)
	svc := NewService(families, repository.NewMemberRepository(db, nil), records, yearconfig.Static(2026), nil)
	return svc, families, records
}

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestSummary(t *testing.T) {
	svc, families, records := setup(t)
	ctx := context.Background()

	a := &entity.Family{HeadOfHouseholdName: "An"}
	require.NoError(t, families.Create(ctx, a, []*entity.Member{
		{Name: "An", BirthYear: 1960, IsMale: true, IsAlive: true},
		{Name: "Bà An", BirthYear: 1935, IsAlive: false},
	}))
	b := &entity.Family{HeadOfHouseholdName: "Bình"}
	require.NoError(t, families.Create(ctx, b, []*entity.Member{{Name: "Bình", BirthYear: 1970, IsMale: true, IsAlive: true}}))

	for _, rec := range []*entity.PrayerRecord{
		{FamilyID: a.ID, Year: 2026, Type: constants.CauAn, DonationAmount: amount(100)},
		{FamilyID: b.ID, Year: 2026, Type: constants.CauAn},
		{FamilyID: a.ID, Year: 2026, Type: constants.CauSieu, DonationAmount: amount(300)},
		{FamilyID: b.ID, Year: 2025, Type: constants.CauAn, DonationAmount: amount(900)},
	} {
		require.NoError(t, records.Create(ctx, rec))
	}

	sum, err := svc.Summary(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2026, sum.CurrentYear)
	assert.Equal(t, 2, sum.FamilyCount)
	assert.Equal(t, 3, sum.TotalMembers)
	assert.Equal(t, 2, sum.CauAnCount)
	assert.Equal(t, 1, sum.CauSieuCount)
	assert.True(t, decimal.NewFromInt(100).Equal(sum.TotalCauAnDonation))
	assert.True(t, decimal.NewFromInt(300).Equal(sum.TotalCauSieuDonation))

	y := 2025
	sum, err = svc.Summary(ctx, &y)
	require.NoError(t, err)
	assert.Equal(t, 2026, sum.CurrentYear)
	assert.Equal(t, 1, sum.CauAnCount)
	assert.Equal(t, 0, sum.CauSieuCount)
	assert.True(t, decimal.NewFromInt(900).Equal(sum.TotalCauAnDonation))
}

func TestSaoHanStats(t *testing.T) {
	svc, families, _ := setup(t)
	ctx := context.Background()

	members := []*entity.Member{
		{Name: "A", BirthYear: 1960, IsMale: true, IsAlive: true},
		{Name: "B", BirthYear: 1951, IsMale: true, IsAlive: true},
		{Name: "C", BirthYear: 1990, IsMale: false, IsAlive: true},
		{Name: "D", BirthYear: 1930, IsMale: true, IsAlive: false},
	}
	require.NoError(t, families.Create(ctx, &entity.Family{HeadOfHouseholdName: "A"}, members))

	stats, err := svc.SaoHanStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalAlive)
	assert.Equal(t, 1, stats.TotalDeceased)

	// 1960 and 1951 are nine years apart, so they share a star.
	star := lunar.ComputeBool(1960, true, 2026).Star
	require.NotEmpty(t, stats.SaoAlive)
	assert.Equal(t, DistributionItem{Name: star, Count: 2}, stats.SaoAlive[0])
	require.Len(t, stats.SaoDeceased, 1)
	assert.Equal(t, lunar.ComputeBool(1930, true, 2026).Star, stats.SaoDeceased[0].Name)

	total := 0
	for _, it := range stats.HanAlive {
		total += it.Count
	}
	assert.Equal(t, 3, total)
}

func TestDistribution_TiesByName(t *testing.T) {
	got := distribution(map[string]int{"Thủy Diệu": 1, "La Hầu": 3, "Kế Đô": 1, "Mộc Đức": 3})
	assert.Equal(t, []DistributionItem{
		{Name: "La Hầu", Count: 3},
		{Name: "Mộc Đức", Count: 3},
		{Name: "Kế Đô", Count: 1},
		{Name: "Thủy Diệu", Count: 1},
	}, got)
}
