package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/et0and/ocular/internal/classroom"
)

const courseWorkPrefix = "ocular:coursework:" // String: ocular:coursework:{run}:{courseID} -> JSON list

// orphanTTL bounds keys left behind by a run that never reached Close.
const orphanTTL = 12 * time.Hour

// Redis keeps one run's cache in Redis under a per-run key prefix. Close
// deletes the run's keys. Failures are logged and behave as misses.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Log    *log.Logger

	prefix string
	mu     sync.Mutex
	keys   map[string]struct{}
}

func NewRedis(addr string, ttl time.Duration, logger *log.Logger) *Redis {
	if logger == nil {
		logger = log.Default()
	}
	return &Redis{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		TTL:    ttl,
		Log:    logger,
		prefix: courseWorkPrefix + uuid.NewString() + ":",
		keys:   map[string]struct{}{},
	}
}

func (r *Redis) key(courseID string) string { return r.prefix + courseID }

func (r *Redis) expiry() time.Duration {
	if r.TTL <= 0 || r.TTL > orphanTTL {
		return orphanTTL
	}
	return r.TTL
}

func (r *Redis) Get(ctx context.Context, courseID string) ([]classroom.CourseWork, bool) {
	b, err := r.Client.Get(ctx, r.key(courseID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.Log.Printf("cache: redis get %s: %v", courseID, err)
		return nil, false
	}
	var work []classroom.CourseWork
	if err := json.Unmarshal(b, &work); err != nil {
		r.Log.Printf("cache: decode %s: %v", courseID, err)
		return nil, false
	}
	return work, true
}

func (r *Redis) Set(ctx context.Context, courseID string, work []classroom.CourseWork) {
	b, err := json.Marshal(work)
	if err != nil {
		r.Log.Printf("cache: encode %s: %v", courseID, err)
		return
	}
	k := r.key(courseID)
	if err := r.Client.Set(ctx, k, b, r.expiry()).Err(); err != nil {
		r.Log.Printf("cache: redis set %s: %v", courseID, err)
		return
	}
	r.mu.Lock()
	r.keys[k] = struct{}{}
	r.mu.Unlock()
}

// Close drops this run's keys and closes the client.
func (r *Redis) Close() error {
	r.mu.Lock()
	keys := make([]string, 0, len(r.keys))
	for k := range r.keys {
		keys = append(keys, k)
	}
	r.keys = map[string]struct{}{}
	r.mu.Unlock()

	if len(keys) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.Client.Del(ctx, keys...).Err(); err != nil {
			r.Log.Printf("cache: redis del: %v", err)
		}
	}
	return r.Client.Close()
}
