package textextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestExtract_TableRow(t *testing.T) {
	res := Extract("1  Nguyễn Văn A   Thiện Đức   45  Thái Âm  Tam Kheo", 2026)

	require.Len(t, res.Members, 1)
	m := res.Members[0]
	require.NotNil(t, m.Name)
	assert.Equal(t, "Nguyễn Văn A", *m.Name)
	require.NotNil(t, m.BirthYear)
	assert.Equal(t, 1982, *m.BirthYear)
	require.NotNil(t, m.IsMale)
	assert.True(t, *m.IsMale)
	require.NotNil(t, m.DharmaName)
	assert.Equal(t, "Thiện Đức", *m.DharmaName)
	assert.True(t, m.IsAlive)
}

func TestExtract_TableRowWithoutDharma(t *testing.T) {
	res := Extract("2  Trần Thị Bích  30", 2026)

	require.Len(t, res.Members, 1)
	m := res.Members[0]
	assert.Equal(t, "Trần Thị Bích", *m.Name)
	assert.Equal(t, 1997, *m.BirthYear)
	require.NotNil(t, m.IsMale)
	assert.False(t, *m.IsMale)
	assert.Nil(t, m.DharmaName)
}

func TestExtract_FreeForm(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantName  string
		wantYear  int
		wantMale  bool
		wantAlive bool
	}{
		{"prefixed year", "Trần Thị B, sinh năm 1985, Nữ", "Trần Thị B", 1985, false, true},
		{"bare year deceased", "Lê Văn C, 2000, Nam, đã mất", "Lê Văn C", 2000, true, false},
		{"sn prefix", "Phạm Văn Dũng - SN 1970", "Phạm Văn Dũng", 1970, true, true},
		{"age only", "Võ Thị Hoa 61", "Võ Thị Hoa", 1966, false, true},
		{"qua doi", "Hồ Văn Lộc; 1940; qua đời", "Hồ Văn Lộc", 1940, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.line, 2026)
			require.Len(t, res.Members, 1)
			m := res.Members[0]
			require.NotNil(t, m.Name)
			assert.Equal(t, tt.wantName, *m.Name)
			require.NotNil(t, m.BirthYear)
			assert.Equal(t, tt.wantYear, *m.BirthYear)
			require.NotNil(t, m.IsMale)
			assert.Equal(t, tt.wantMale, *m.IsMale)
			assert.Equal(t, tt.wantAlive, m.IsAlive)
		})
	}
}

func TestExtract_DharmaName(t *testing.T) {
	res := Extract("Nguyễn Thị Lan, PD: Diệu Hạnh, 1950", 2026)

	require.Len(t, res.Members, 1)
	m := res.Members[0]
	require.NotNil(t, m.DharmaName)
	assert.Equal(t, "Diệu Hạnh", *m.DharmaName)
	assert.Equal(t, "Nguyễn Thị Lan", *m.Name)
	assert.Equal(t, 1950, *m.BirthYear)
}

func TestExtract_UnknownGender(t *testing.T) {
	res := Extract("Lý Minh Châu 1995", 2026)

	require.Len(t, res.Members, 1)
	assert.Nil(t, res.Members[0].IsMale)
}

func TestExtract_HeaderLinesProduceNoMembers(t *testing.T) {
	lines := []string{
		"Sổ Cầu An năm Bính Ngọ - Ban Trị Sự",
		"STT  Họ tên  Pháp danh  Tuổi  Sao  Hạn",
		"Chùa An Phúc - Sổ cầu siêu",
		"Địa chỉ: Thôn 3 Xã An Phú",
	}
	for _, line := range lines {
		res := Extract(line, 2026)
		assert.Empty(t, res.Members, line)
	}
}

func TestExtract_HeadAndAddress(t *testing.T) {
	text := "Trại chủ: Phạm Văn Dũng tổ 5\n" +
		"Địa chỉ: Thôn 3 Xã An Phú\n" +
		"Gia chủ: Người Khác\n" +
		"Địa chỉ: Chỗ khác\n" +
		"1  Phạm Văn Dũng   Minh Tâm   56"

	res := Extract(text, 2026)

	require.NotNil(t, res.HouseholdHead)
	assert.Equal(t, "Phạm Văn Dũng", *res.HouseholdHead)
	require.NotNil(t, res.Address)
	assert.Equal(t, "Thôn 3 Xã An Phú", *res.Address)
}

func TestExtract_GiaChuLineIsAlsoMember(t *testing.T) {
	res := Extract("Gia chủ: Nguyễn Văn Tâm", 2026)

	require.NotNil(t, res.HouseholdHead)
	assert.Equal(t, "Nguyễn Văn Tâm", *res.HouseholdHead)
	require.Len(t, res.Members, 1)
	assert.Equal(t, "Gia chủ: Nguyễn Văn Tâm", *res.Members[0].Name)
}

func TestExtract_DecomposedInputIsComposed(t *testing.T) {
	res := Extract(norm.NFD.String("Trần Thị B, sinh năm 1985, Nữ"), 2026)

	require.Len(t, res.Members, 1)
	m := res.Members[0]
	require.NotNil(t, m.Name)
	assert.Equal(t, "Trần Thị B", *m.Name)
	require.NotNil(t, m.BirthYear)
	assert.Equal(t, 1985, *m.BirthYear)
	require.NotNil(t, m.IsMale)
	assert.False(t, *m.IsMale)
}

func TestExtract_PrefixedYearWinsOverBareYear(t *testing.T) {
	res := Extract("Lê Thị Mai 1999, sinh năm 1975", 2026)

	require.Len(t, res.Members, 1)
	m := res.Members[0]
	require.NotNil(t, m.BirthYear)
	assert.Equal(t, 1975, *m.BirthYear)
	require.NotNil(t, m.Name)
	assert.Equal(t, "Lê Thị Mai 1999", *m.Name)
}

func TestExtract_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n", "ab\n c"} {
		res := Extract(in, 2026)
		assert.Nil(t, res.HouseholdHead)
		assert.Nil(t, res.Address)
		assert.NotNil(t, res.Members)
		assert.Empty(t, res.Members)
	}
}

func TestExtract_PreservesOrder(t *testing.T) {
	text := "Nguyễn Văn An 1960\n\nTrần Thị Bình 1965\nNguyễn Văn Cường 1990"

	res := Extract(text, 2026)

	require.Len(t, res.Members, 3)
	assert.Equal(t, "Nguyễn Văn An", *res.Members[0].Name)
	assert.Equal(t, "Trần Thị Bình", *res.Members[1].Name)
	assert.Equal(t, "Nguyễn Văn Cường", *res.Members[2].Name)
}

func TestExtract_Deterministic(t *testing.T) {
	text := "Gia chủ: Lê Văn Hùng\n1  Lê Văn Hùng   Quảng Đức   70\nLê Thị Mai, 1960, Nữ"

	assert.Equal(t, Extract(text, 2026), Extract(text, 2026))
}

func TestExtract_AgeOutOfRangeIgnored(t *testing.T) {
	res := Extract("Ông Ba 250", 2026)

	require.Len(t, res.Members, 1)
	assert.Nil(t, res.Members[0].BirthYear)
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "Nguyễn Văn A", cleanName("3. Nguyễn Văn A"))
	assert.Equal(t, "Nguyễn Văn A", cleanName("Nguyễn Văn A La Hầu Tam Kheo"))
	assert.Equal(t, "Lê Thị Thanh", cleanName("  Lê Thị Thanh  "))
}
