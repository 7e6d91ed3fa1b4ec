package catalog

import (
	"context"
	"errors"
	"testing"

	"codearena/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	items []domain.Challenge
	err   error
}

func (s stubSource) ListChallenges(context.Context) ([]domain.Challenge, error) {
	return s.items, s.err
}

func TestSeededCatalog(t *testing.T) {
	c := Seeded()
	require.NotZero(t, c.Len())

	ch, ok := c.Get("fizzbuzz")
	require.True(t, ok)
	assert.Equal(t, domain.DifficultyEasy, ch.Difficulty)
	assert.NotEmpty(t, ch.TestCases)

	for _, it := range c.List(domain.DifficultyHard) {
		assert.Equal(t, domain.DifficultyHard, it.Difficulty)
	}
}

func TestDefaultIsDeterministic(t *testing.T) {
	c := Seeded()
	a, ok := c.Default(domain.DifficultyMedium)
	require.True(t, ok)
	b, _ := c.Default(domain.DifficultyMedium)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "two-sum", a.ID)

	// неизвестный уровень - первая задача каталога
	d, ok := c.Default("impossible")
	require.True(t, ok)
	assert.Equal(t, "fizzbuzz", d.ID)

	_, ok = New().Default(domain.DifficultyEasy)
	assert.False(t, ok)
}

func TestPickFiltersByDifficulty(t *testing.T) {
	c := Seeded()
	for i := 0; i < 20; i++ {
		ch, ok := c.Pick(domain.DifficultyEasy)
		require.True(t, ok)
		assert.Equal(t, domain.DifficultyEasy, ch.Difficulty)
	}
}

func TestLoadMergesSource(t *testing.T) {
	c := Seeded()
	before := c.Len()

	n, err := c.Load(context.Background(), stubSource{items: []domain.Challenge{
		{ID: "matrix-spiral", Title: "Spiral", Difficulty: domain.DifficultyMedium},
		{ID: "fizzbuzz", Title: "FizzBuzz v2", Difficulty: domain.DifficultyEasy},
		{ID: "broken", Difficulty: "legendary"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, before+1, c.Len())

	fb, _ := c.Get("fizzbuzz")
	assert.Equal(t, "FizzBuzz v2", fb.Title)
	_, ok := c.Get("broken")
	assert.False(t, ok)
}

func TestLoadError(t *testing.T) {
	c := New()
	_, err := c.Load(context.Background(), stubSource{err: errors.New("db down")})
	assert.Error(t, err)
}
