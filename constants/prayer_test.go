package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrayerType(t *testing.T) {
	for _, in := range []string{"CauAn", "cauan", " CAUAN "} {
		pt, ok := ParsePrayerType(in)
		assert.True(t, ok, in)
		assert.Equal(t, CauAn, pt)
	}
	pt, ok := ParsePrayerType("CauSieu")
	assert.True(t, ok)
	assert.Equal(t, CauSieu, pt)

	_, ok = ParsePrayerType("Other")
	assert.False(t, ok)
}

func TestPrayerTypeHelpers(t *testing.T) {
	assert.True(t, CauAn.ListsLiving())
	assert.False(t, CauSieu.ListsLiving())
	assert.Equal(t, "Sổ Cầu Siêu", CauSieu.Title())
	assert.Len(t, PrayerTypes(), 2)
}

func TestExtensions(t *testing.T) {
	assert.True(t, IsImageExt(".HEIC"))
	assert.True(t, IsImageExt("jpg"))
	assert.False(t, IsImageExt(".pdf"))
	assert.True(t, IsTextExt(".txt"))
}
