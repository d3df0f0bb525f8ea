package imports

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/anphuc-nienso/constants"
	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
	"github.com/joseph-ayodele/anphuc-nienso/internal/entity"
	"github.com/joseph-ayodele/anphuc-nienso/internal/ocr"
	"github.com/joseph-ayodele/anphuc-nienso/internal/repository"
	"github.com/joseph-ayodele/anphuc-nienso/internal/yearconfig"
)

type stubOCR struct {
	text string
	err  error
}

func (s stubOCR) ExtractText(context.Context, []byte) (string, error) { return s.text, s.err }

type fixture struct {
	families repository.FamilyRepository
	members  repository.MemberRepository
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "imports.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return fixture{
		families: repository.NewFamilyRepository(db, nil),
		members:  repository.NewMemberRepository(db, nil),
	}
}

func ptr[T any](v T) *T { return &v }

func TestProcessText(t *testing.T) {
	f := setup(t)
	svc := NewService(f.families, yearconfig.Static(2026), nil, nil)

	_, err := svc.ProcessText(context.Background(), "  \n ")
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	p, err := svc.ProcessText(context.Background(), "Gia chủ: Nguyễn Văn An\nNguyễn Văn An 67 tuổi\n")
	require.NoError(t, err)
	require.NotNil(t, p.HouseholdHead)
	assert.Equal(t, "Nguyễn Văn An", *p.HouseholdHead)
	assert.Contains(t, p.ExtractedText, "Gia chủ")
	require.NotEmpty(t, p.Members)
	last := p.Members[len(p.Members)-1]
	require.NotNil(t, last.BirthYear)
	assert.Equal(t, 1960, *last.BirthYear)
}

func TestProcessImage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		ocr     TextRecognizer
		image   []byte
		wantErr error
	}{
		{"empty", stubOCR{}, nil, common.ErrInvalidInput},
		{"not configured", nil, []byte("x"), common.ErrUnprocessable},
		{"resources missing", stubOCR{err: fmt.Errorf("%w: no vie", ocr.ErrResourceUnavailable)}, []byte("x"), common.ErrUnprocessable},
		{"unsupported", stubOCR{err: ocr.ErrUnsupportedFormat}, []byte("x"), common.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(f.families, yearconfig.Static(2026), tt.ocr, nil)
			_, err := svc.ProcessImage(ctx, tt.image)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	svc := NewService(f.families, yearconfig.Static(2026), stubOCR{text: "Lê Thị Cúc 1970"}, nil)
	p, err := svc.ProcessImage(ctx, []byte("png"))
	require.NoError(t, err)
	require.Len(t, p.Members, 1)
	assert.Equal(t, "Lê Thị Cúc", *p.Members[0].Name)
	assert.False(t, *p.Members[0].IsMale)
}

func TestSave_NewFamilyDefaults(t *testing.T) {
	f := setup(t)
	svc := NewService(f.families, yearconfig.Static(2026), nil, nil)
	ctx := context.Background()

	res, err := svc.Save(ctx, SaveRequest{Members: []SaveMember{{}, {Name: ptr("Trần Thị Dung"), BirthYear: ptr(1980), IsMale: ptr(false), IsAlive: ptr(false)}}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.MemberCount)

	fam, err := f.families.Get(ctx, res.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, constants.UnknownName, fam.HeadOfHouseholdName)

	members, err := f.members.ListByFamily(ctx, res.FamilyID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	byName := map[string]*entity.Member{}
	for _, m := range members {
		byName[m.Name] = m
	}
	unknown := byName[constants.UnknownName]
	require.NotNil(t, unknown)
	assert.Equal(t, 0, unknown.BirthYear)
	assert.True(t, unknown.IsMale)
	assert.True(t, unknown.IsAlive)
	assert.False(t, byName["Trần Thị Dung"].IsAlive)
}

func TestSave_HeadFallsBackToFirstMember(t *testing.T) {
	f := setup(t)
	svc := NewService(f.families, yearconfig.Static(2026), nil, nil)
	ctx := context.Background()

	res, err := svc.Save(ctx, SaveRequest{
		HeadOfHouseholdName: ptr("  "),
		Members:             []SaveMember{{Name: ptr("Phạm Văn Em"), BirthYear: ptr(1955)}},
	})
	require.NoError(t, err)
	fam, err := f.families.Get(ctx, res.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, "Phạm Văn Em", fam.HeadOfHouseholdName)
}

func TestSave_ExistingFamily(t *testing.T) {
	f := setup(t)
	svc := NewService(f.families, yearconfig.Static(2026), nil, nil)
	ctx := context.Background()

	fam := &entity.Family{HeadOfHouseholdName: "Hồ Văn Phúc"}
	require.NoError(t, f.families.Create(ctx, fam, nil))

	res, err := svc.Save(ctx, SaveRequest{FamilyID: &fam.ID, Members: []SaveMember{{Name: ptr("Hồ Thị Giang"), BirthYear: ptr(1990)}}})
	require.NoError(t, err)
	assert.Equal(t, fam.ID, res.FamilyID)

	members, err := f.members.ListByFamily(ctx, fam.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	missing := uuid.New()
	_, err = svc.Save(ctx, SaveRequest{FamilyID: &missing, Members: []SaveMember{{}}})
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestSave_NoMembers(t *testing.T) {
	f := setup(t)
	svc := NewService(f.families, yearconfig.Static(2026), nil, nil)

	_, err := svc.Save(context.Background(), SaveRequest{HeadOfHouseholdName: ptr("X")})
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}
