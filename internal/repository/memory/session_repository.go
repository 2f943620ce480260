package memory

import (
	"time"

	"content-optimizer-be/pkg/seo/optimizer"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps finished optimization results by session id.
// Entries expire after the configured TTL.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *SessionRepository) Save(result *optimizer.Result) {
	r.cache.Set(result.SessionID, result, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*optimizer.Result, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*optimizer.Result), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
