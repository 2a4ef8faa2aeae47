package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/doacoes/internal/catalog"
	"github.com/erazemk/doacoes/internal/donation"
)

const visitorCookie = "visitor"

// Visitor is the per-browser state of the public screens.
type Visitor struct {
	ID      string
	Catalog *catalog.Catalog
	Host    *donation.Host

	lastSeen time.Time
}

// Visitors keeps visitor state in memory, keyed by the visitor cookie.
// Entries idle for longer than ttl are dropped.
type Visitors struct {
	ttl    time.Duration
	secure bool
	create func() (*catalog.Catalog, *donation.Host)
	now    func() time.Time

	mu   sync.Mutex
	byID map[string]*Visitor
}

// NewVisitors creates a registry. create builds the screens for a new visitor.
func NewVisitors(ttl time.Duration, secure bool, create func() (*catalog.Catalog, *donation.Host)) *Visitors {
	return &Visitors{
		ttl:    ttl,
		secure: secure,
		create: create,
		now:    time.Now,
		byID:   make(map[string]*Visitor),
	}
}

// Get returns the visitor for r, creating one and setting its cookie when
// the browser has none or its state was evicted.
func (vs *Visitors) Get(w http.ResponseWriter, r *http.Request) *Visitor {
	now := vs.now()

	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.evictLocked(now)

	if cookie, err := r.Cookie(visitorCookie); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			if v, ok := vs.byID[id.String()]; ok {
				v.lastSeen = now
				return v
			}
		}
	}

	c, h := vs.create()
	v := &Visitor{ID: uuid.NewString(), Catalog: c, Host: h, lastSeen: now}
	vs.byID[v.ID] = v
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    v.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   vs.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return v
}

// Len returns the number of live visitors.
func (vs *Visitors) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.byID)
}

func (vs *Visitors) evictLocked(now time.Time) {
	for id, v := range vs.byID {
		if now.Sub(v.lastSeen) > vs.ttl {
			delete(vs.byID, id)
		}
	}
}
