// Package session holds the upstream auth cookies shared by all proxied calls.
//
// DESIGN: The upstream issues one JSESSIONID per login. Its session framework
// breaks when a request carries two cookies with the same name, so the store
// enforces a single-slot-per-name jar: setting a cookie whose name already
// exists replaces the old value instead of accumulating a duplicate.
//
// Cookies are tracked twice:
//   - the jar: the cookies actually attached to outgoing upstream requests
//   - slots:   the raw "NAME=value" pair per restaurant id, plus a "latest"
//     slot used when the restaurant id is not yet known (during login the id
//     is only recovered from the response body)
package session

import (
	"strings"
	"sync"
)

// latestKey is the slot used when no restaurant id is known at call time.
const latestKey int64 = 0

// Cookie is a single name=value pair in the shared jar.
type Cookie struct {
	Name  string
	Value string
}

// Store is the process-wide cookie store. All methods are safe for concurrent
// use; the original design raced logins for different restaurants, the mutex
// removes the race while keeping replace semantics intact.
type Store struct {
	mu    sync.Mutex
	jar   []Cookie
	slots map[int64]string
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{slots: make(map[int64]string)}
}

// Get returns the stored raw cookie pair for a restaurant, falling back to
// the "latest" slot when restaurantID is zero or negative.
func (s *Store) Get(restaurantID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if restaurantID > 0 {
		v, ok := s.slots[restaurantID]
		return v, ok
	}
	v, ok := s.slots[latestKey]
	return v, ok
}

// Set parses a raw "name=value" pair and stores it. A same-named cookie
// already in the jar is removed first. The "latest" slot is always updated;
// the restaurant slot only when restaurantID is positive. Pairs without "="
// are ignored.
func (s *Store) Set(rawPair string, restaurantID int64) {
	name, value, ok := strings.Cut(rawPair, "=")
	if !ok || name == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(name, value)
	s.slots[latestKey] = rawPair
	if restaurantID > 0 {
		s.slots[restaurantID] = rawPair
	}
}

// Clear removes one restaurant's slot, or everything including the jar when
// restaurantID is zero or negative.
func (s *Store) Clear(restaurantID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if restaurantID > 0 {
		delete(s.slots, restaurantID)
		return
	}
	s.slots = make(map[int64]string)
	s.jar = nil
}

// Dedupe removes all but the last cookie with the given name and returns how
// many duplicates were dropped. Defensive mirror of the Set invariant, run by
// the forwarder right before each upstream call.
func (s *Store) Dedupe(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := ""
	count := 0
	for _, c := range s.jar {
		if c.Name == name {
			count++
			last = c.Value
		}
	}
	if count <= 1 {
		return 0
	}
	s.replaceLocked(name, last)
	return count - 1
}

// Cookies returns a snapshot of the jar in insertion order.
func (s *Store) Cookies() []Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Cookie, len(s.jar))
	copy(out, s.jar)
	return out
}

// CookieHeader renders the jar as a Cookie header value, or "" when empty.
func (s *Store) CookieHeader() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jar) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.jar))
	for _, c := range s.jar {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// Len returns the number of cookies in the jar.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jar)
}

// replaceLocked drops every jar entry named name and appends the new value.
func (s *Store) replaceLocked(name, value string) {
	kept := s.jar[:0]
	for _, c := range s.jar {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	s.jar = append(kept, Cookie{Name: name, Value: value})
}
