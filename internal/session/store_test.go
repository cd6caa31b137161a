package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetReplacesSameNamedCookie(t *testing.T) {
	s := NewStore()
	s.Set("A=1", 0)
	s.Set("A=2", 0)

	cookies := s.Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, "A", cookies[0].Name)
	assert.Equal(t, "2", cookies[0].Value)
}

func TestSetUpdatesLatestAndRestaurantSlots(t *testing.T) {
	s := NewStore()
	s.Set("JSESSIONID=abc", 7)

	v, ok := s.Get(7)
	assert.True(t, ok)
	assert.Equal(t, "JSESSIONID=abc", v)

	v, ok = s.Get(0)
	assert.True(t, ok)
	assert.Equal(t, "JSESSIONID=abc", v)

	_, ok = s.Get(99)
	assert.False(t, ok)
}

func TestSetWithoutRestaurantOnlyTouchesLatest(t *testing.T) {
	s := NewStore()
	s.Set("JSESSIONID=first", 3)
	s.Set("JSESSIONID=second", 0)

	v, _ := s.Get(3)
	assert.Equal(t, "JSESSIONID=first", v)

	v, _ = s.Get(0)
	assert.Equal(t, "JSESSIONID=second", v)
}

func TestSetIgnoresMalformedPair(t *testing.T) {
	s := NewStore()
	s.Set("not-a-cookie", 0)

	assert.Equal(t, 0, s.Len())
	_, ok := s.Get(0)
	assert.False(t, ok)
}

func TestClearSingleRestaurant(t *testing.T) {
	s := NewStore()
	s.Set("JSESSIONID=abc", 1)
	s.Set("JSESSIONID=def", 2)

	s.Clear(1)

	_, ok := s.Get(1)
	assert.False(t, ok)
	v, ok := s.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "JSESSIONID=def", v)
	// Jar survives a scoped clear.
	assert.Equal(t, 1, s.Len())
}

func TestClearAllWipesJar(t *testing.T) {
	s := NewStore()
	s.Set("JSESSIONID=abc", 1)
	s.Set("OTHER=x", 0)

	s.Clear(0)

	assert.Equal(t, 0, s.Len())
	_, ok := s.Get(0)
	assert.False(t, ok)
	assert.Equal(t, "", s.CookieHeader())
}

func TestCookieHeaderJoinsInInsertionOrder(t *testing.T) {
	s := NewStore()
	s.Set("A=1", 0)
	s.Set("B=2", 0)

	assert.Equal(t, "A=1; B=2", s.CookieHeader())
}

func TestDedupe(t *testing.T) {
	s := NewStore()
	// Force duplicates past the Set invariant.
	s.jar = []Cookie{{"JSESSIONID", "old"}, {"X", "1"}, {"JSESSIONID", "new"}}

	removed := s.Dedupe("JSESSIONID")
	assert.Equal(t, 1, removed)

	cookies := s.Cookies()
	assert.Len(t, cookies, 2)
	assert.Equal(t, "X", cookies[0].Name)
	assert.Equal(t, "JSESSIONID", cookies[1].Name)
	assert.Equal(t, "new", cookies[1].Value)

	assert.Equal(t, 0, s.Dedupe("JSESSIONID"))
	assert.Equal(t, 0, s.Dedupe("missing"))
}
