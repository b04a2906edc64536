// Package cache remembers the course work fetched for each course.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/et0and/ocular/internal/classroom"
)

type CourseWork interface {
	Get(ctx context.Context, courseID string) ([]classroom.CourseWork, bool)
	Set(ctx context.Context, courseID string, work []classroom.CourseWork)
}

// Memory is a process-local cache. A zero TTL keeps entries until exit.
type Memory struct {
	c *gocache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	exp := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		exp = ttl
		cleanup = 2 * ttl
	}
	return &Memory{c: gocache.New(exp, cleanup)}
}

func (m *Memory) Get(_ context.Context, courseID string) ([]classroom.CourseWork, bool) {
	v, ok := m.c.Get(courseID)
	if !ok {
		return nil, false
	}
	work, ok := v.([]classroom.CourseWork)
	return work, ok
}

func (m *Memory) Set(_ context.Context, courseID string, work []classroom.CourseWork) {
	m.c.Set(courseID, work, gocache.DefaultExpiration)
}
