package memory

import (
	"context"
	"time"

	"github.com/geocoder89/marathonreg/internal/cache"
	"github.com/geocoder89/marathonreg/internal/form"
)

// SessionsRepo keeps form sessions in process. Sessions idle longer than ttl are gone.
type SessionsRepo struct {
	items *cache.Cache[form.Session]
}

func NewSessionsRepo(ttl time.Duration) *SessionsRepo {
	if ttl <= 0 {
		ttl = form.DefaultSessionTTL
	}
	return &SessionsRepo{
		items: cache.New[form.Session](ttl),
	}
}

func (r *SessionsRepo) Create(_ context.Context, s form.Session) error {
	r.items.Set(s.ID, s)
	return nil
}

func (r *SessionsRepo) Get(_ context.Context, id string) (form.Session, error) {
	s, ok := r.items.Get(id)
	if !ok {
		return form.Session{}, form.ErrSessionNotFound
	}
	return s, nil
}

func (r *SessionsRepo) Save(_ context.Context, s form.Session) error {
	if _, ok := r.items.Get(s.ID); !ok {
		return form.ErrSessionNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	r.items.Set(s.ID, s)
	return nil
}

func (r *SessionsRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items.Get(id); !ok {
		return form.ErrSessionNotFound
	}
	r.items.Delete(id)
	return nil
}

func (r *SessionsRepo) Len() int {
	return r.items.Len()
}

// Janitor sweeps expired sessions every interval until ctx is done.
func (r *SessionsRepo) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.items.Sweep()
		}
	}
}

// Ping lets the readiness probe treat both stores alike.
func (r *SessionsRepo) Ping(context.Context) error {
	return nil
}
