package lunar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_ApparentAge(t *testing.T) {
	assert.Equal(t, 37, Compute(1990, Male, 2026).ApparentAge)
	assert.Equal(t, 1, Compute(2026, Female, 2026).ApparentAge)
	assert.Equal(t, 0, Compute(2027, Male, 2026).ApparentAge)
	assert.Equal(t, -8, Compute(2035, Male, 2026).ApparentAge)
}

func TestCompute_UnbornIsNoData(t *testing.T) {
	for _, by := range []int{2027, 2030, 3000} {
		for _, g := range []Gender{Male, Female} {
			f := Compute(by, g, 2026)
			assert.Equal(t, NoData, f.Star, "birth year %d", by)
			assert.Equal(t, NoData, f.Obstacle, "birth year %d", by)
		}
	}
}

func TestCompute_AgeZeroBoundary(t *testing.T) {
	f := Compute(2027, Female, 2026)
	assert.Equal(t, 0, f.ApparentAge)
	assert.Equal(t, NoData, f.Star)
	assert.Equal(t, NoData, f.Obstacle)
}

func TestCompute_YoungAgesHaveNoObstacle(t *testing.T) {
	for age := 1; age <= 9; age++ {
		f := Compute(2026-age+1, Male, 2026)
		assert.Equal(t, age, f.ApparentAge)
		assert.Equal(t, NoData, f.Obstacle)
		assert.NotEqual(t, NoData, f.Star)
	}
}

func TestCompute_FirstObstaclePass(t *testing.T) {
	for _, g := range []Gender{Male, Female} {
		table := Obstacles(g)
		for age := 10; age <= 17; age++ {
			f := Compute(2026-age+1, g, 2026)
			assert.Equal(t, table[age-10], f.Obstacle, "%s age %d", g, age)
		}
	}
}

func TestCompute_StarCycle(t *testing.T) {
	for _, g := range []Gender{Male, Female} {
		for by := 1900; by <= 2017; by++ {
			a := Compute(by, g, 2026)
			b := Compute(by-9, g, 2026)
			assert.Equal(t, a.Star, b.Star, "%s birth year %d", g, by)
		}
	}
	assert.Equal(t, "La Hầu", Compute(2026, Male, 2026).Star)
	assert.Equal(t, "Kế Đô", Compute(2026, Female, 2026).Star)
}

func TestCompute_DiagonalObstacle(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{18, "Huỳnh Tuyền"},
		{19, "Tam Kheo"},
		{20, "Tam Kheo"},
		{21, "Ngũ Mộ"},
		{26, "Diêm Vương"},
		{27, "Huỳnh Tuyền"},
		{29, "Ngũ Mộ"},
		{30, "Ngũ Mộ"},
		{37, "Tam Kheo"},
	}
	for _, tt := range tests {
		f := Compute(2026-tt.age+1, Male, 2026)
		assert.Equal(t, tt.want, f.Obstacle, "age %d", tt.age)
	}
}

func TestCompute_Example1990Male(t *testing.T) {
	f := Compute(1990, Male, 2026)
	assert.Equal(t, Fortune{ApparentAge: 37, Star: "La Hầu", Obstacle: Obstacles(Male)[1]}, f)
}

func TestCompute_FemaleTables(t *testing.T) {
	f := Compute(1985, Female, 2026)
	assert.Equal(t, 42, f.ApparentAge)
	assert.Equal(t, Stars(Female)[(42-1)%9], f.Star)
}

func TestComputeBool(t *testing.T) {
	assert.Equal(t, Compute(1970, Male, 2026), ComputeBool(1970, true, 2026))
	assert.Equal(t, Compute(1970, Female, 2026), ComputeBool(1970, false, 2026))
}

func TestTablesAreCopies(t *testing.T) {
	s := Stars(Male)
	s[0] = "changed"
	assert.Equal(t, "La Hầu", Stars(Male)[0])
	assert.Len(t, Obstacles(Female), 8)
}
