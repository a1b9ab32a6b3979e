package server

import (
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
)

const loginWindow = time.Minute

// Progressive ban durations
var banDurations = []time.Duration{
	10 * time.Minute,
	1 * time.Hour,
	24 * time.Hour,
}

const permabanDuration = 100 * 365 * 24 * time.Hour // effectively permanent

type banRecord struct {
	Until time.Time `json:"until"`
	Count int       `json:"count"`
}

// loginLimiter throttles login attempts per client address. A client that
// goes over the limit is banned, for longer on each repeat, and bans are
// persisted so a restart does not lift them.
type loginLimiter struct {
	max   int
	store storage.StateBackend
	now   func() time.Time

	mu       sync.Mutex
	attempts map[string][]time.Time
	bans     map[string]banRecord
}

func newLoginLimiter(max int, store storage.StateBackend) *loginLimiter {
	if max <= 0 {
		return nil
	}
	return &loginLimiter{
		max:      max,
		store:    store,
		now:      time.Now,
		attempts: make(map[string][]time.Time),
		bans:     make(map[string]banRecord),
	}
}

func banKey(addr string) string { return "ban:" + addr }

// allow records an attempt from addr. When refused it returns the time the
// client may retry.
func (l *loginLimiter) allow(addr string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ban := l.banFor(addr)
	if now.Before(ban.Until) {
		return false, ban.Until
	}

	var recent []time.Time
	for _, t := range l.attempts[addr] {
		if now.Sub(t) < loginWindow {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	if len(recent) <= l.max {
		l.attempts[addr] = recent
		return true, time.Time{}
	}

	ban.Count++
	dur := permabanDuration
	if ban.Count <= len(banDurations) {
		dur = banDurations[ban.Count-1]
	}
	ban.Until = now.Add(dur)
	l.bans[addr] = ban
	delete(l.attempts, addr)
	if l.store != nil {
		if err := storage.PutJSON(l.store, banKey(addr), ban); err != nil {
			log.Printf("[ERROR] Failed to persist login ban for %s: %v", addr, err)
		}
	}
	log.Printf("[BAN] %s banned from login for %s (violation #%d)", addr, dur, ban.Count)
	return false, ban.Until
}

// banFor returns the ban on addr, loading a persisted one on first sight.
// Caller holds l.mu.
func (l *loginLimiter) banFor(addr string) banRecord {
	if b, ok := l.bans[addr]; ok {
		return b
	}
	var b banRecord
	if l.store != nil {
		if err := storage.GetJSON(l.store, banKey(addr), &b); err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[ERROR] Failed to read login ban for %s: %v", addr, err)
		}
	}
	l.bans[addr] = b
	return b
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// throttle applies the login limiter to h.
func (s *Server) throttle(h http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ok, until := s.limiter.allow(clientAddr(r))
		if !ok {
			retry := int(time.Until(until).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeError(w, http.StatusTooManyRequests, "too many login attempts")
			return
		}
		h(w, r)
	}
}
