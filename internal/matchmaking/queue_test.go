package matchmaking

import (
	"fmt"
	"sync"
	"testing"

	"codearena/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ticket(n int) domain.Ticket {
	return domain.Ticket{
		ConnID:   fmt.Sprintf("conn-%d", n),
		PlayerID: fmt.Sprintf("player-%d", n),
		Profile:  domain.Profile{Name: fmt.Sprintf("P%d", n)},
	}
}

func TestEnqueuePairsBackToBack(t *testing.T) {
	q := NewQueue()

	_, paired := q.Enqueue(ticket(1))
	require.False(t, paired)
	assert.Equal(t, 1, q.Len())

	pair, paired := q.Enqueue(ticket(2))
	require.True(t, paired)
	assert.Equal(t, "conn-1", pair.First.ConnID)
	assert.Equal(t, "conn-2", pair.Second.ConnID)
	assert.Zero(t, q.Len())
}

func TestEnqueueIgnoresRankAndDifficulty(t *testing.T) {
	q := NewQueue()
	a := ticket(1)
	a.Profile.Rank = "grandmaster"
	a.Difficulty = domain.DifficultyHard
	b := ticket(2)
	b.Profile.Rank = "novice"
	b.Difficulty = domain.DifficultyEasy

	q.Enqueue(a)
	_, paired := q.Enqueue(b)
	assert.True(t, paired)
}

func TestEnqueueSamePlayerReplacesTicket(t *testing.T) {
	q := NewQueue()
	q.Enqueue(ticket(1))

	again := ticket(1)
	again.ConnID = "conn-1-tab2"
	_, paired := q.Enqueue(again)
	assert.False(t, paired, "игрок не должен попасть в пару сам с собой")
	assert.Equal(t, 1, q.Len())
	assert.False(t, q.Cancel("conn-1"), "старая заявка заменена")
	assert.True(t, q.Cancel("conn-1-tab2"))
}

func TestCancel(t *testing.T) {
	q := NewQueue()
	q.Enqueue(ticket(1))

	assert.True(t, q.Cancel("conn-1"))
	assert.False(t, q.Cancel("conn-1"), "повторная отмена - no-op")
	assert.Zero(t, q.Len())

	q.Enqueue(ticket(2))
	q.Enqueue(ticket(3))
	assert.False(t, q.Remove("conn-2"), "уже в паре")
}

func TestConcurrentEnqueueNeverDoublePairs(t *testing.T) {
	q := NewQueue()
	const n = 200

	var (
		mu    sync.Mutex
		seen  = make(map[string]int)
		pairs int
		wg    sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair, ok := q.Enqueue(ticket(i))
			if !ok {
				return
			}
			mu.Lock()
			pairs++
			seen[pair.First.ConnID]++
			seen[pair.Second.ConnID]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n/2, pairs)
	assert.Zero(t, q.Len())
	for conn, count := range seen {
		assert.Equal(t, 1, count, "соединение %s попало в пару %d раз", conn, count)
	}
}
