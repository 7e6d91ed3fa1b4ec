package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"codearena/internal/domain"
)

// Source внешний источник задач (таблица challenges)
type Source interface {
	ListChallenges(ctx context.Context) ([]domain.Challenge, error)
}

// Catalog каталог задач только для чтения со стороны координатора
type Catalog struct {
	mu    sync.RWMutex
	byID  map[string]domain.Challenge
	order []string
}

func New(items ...domain.Challenge) *Catalog {
	c := &Catalog{byID: make(map[string]domain.Challenge)}
	for _, it := range items {
		c.putLocked(it)
	}
	return c
}

// Seeded каталог со встроенным набором задач
func Seeded() *Catalog {
	return New(seed...)
}

func (c *Catalog) putLocked(ch domain.Challenge) {
	if _, ok := c.byID[ch.ID]; !ok {
		c.order = append(c.order, ch.ID)
	}
	c.byID[ch.ID] = ch
}

// Load подмешивает задачи из источника, одинаковые id перезаписываются
func (c *Catalog) Load(ctx context.Context, src Source) (int, error) {
	items, err := src.ListChallenges(ctx)
	if err != nil {
		return 0, fmt.Errorf("load challenges: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range items {
		if it.ID == "" || !it.Difficulty.Valid() {
			continue
		}
		c.putLocked(it)
		n++
	}
	return n, nil
}

func (c *Catalog) Get(id string) (domain.Challenge, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.byID[id]
	return ch, ok
}

// List задачи уровня d в порядке добавления; пустой d - все
func (c *Catalog) List(d domain.Difficulty) []domain.Challenge {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Challenge, 0, len(c.order))
	for _, id := range c.order {
		ch := c.byID[id]
		if d != "" && ch.Difficulty != d {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// Pick случайная задача уровня d (то, что делает клиент перед предложением)
func (c *Catalog) Pick(d domain.Difficulty) (domain.Challenge, bool) {
	items := c.List(d)
	if len(items) == 0 {
		return domain.Challenge{}, false
	}
	return items[rand.IntN(len(items))], true
}

// Default детерминированная задача для фолбэка по таймауту синхронизации
func (c *Catalog) Default(d domain.Difficulty) (domain.Challenge, bool) {
	if items := c.List(d); len(items) > 0 {
		return items[0], true
	}
	if items := c.List(""); len(items) > 0 {
		return items[0], true
	}
	return domain.Challenge{}, false
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
