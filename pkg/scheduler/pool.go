package scheduler

import (
	"fmt"

	"coopsched/pkg/slotpool"
)

// Pool is the fixed-capacity backing store for a Registry's tasks.
// A Pool can be bound to one registry only.
type Pool struct {
	slots *slotpool.Pool[task]
	bound bool
}

// NewPool allocates room for capacity tasks up front.
func NewPool(capacity int) (*Pool, error) {
	sp, err := slotpool.New[task](capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &Pool{slots: sp}, nil
}

func (p *Pool) Cap() int { return p.slots.Cap() }
