// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"pagecraft/internal/metrics"
)

// cleanupInterval is how often idle clients are dropped.
const cleanupInterval = 5 * time.Minute

// hits is the sliding window of one client's accepted requests, oldest
// first.
type hits struct {
	mu    sync.Mutex
	times []time.Time
}

// expire drops timestamps at or before cutoff and reports how many remain.
func (h *hits) expire(cutoff time.Time) int {
	keep := 0
	for keep < len(h.times) && !h.times[keep].After(cutoff) {
		keep++
	}
	h.times = h.times[keep:]
	return len(h.times)
}

// RateLimiter caps pipeline writes per client within a sliding window.
// Clients are identified by their actor header, falling back to their IP.
type RateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*hits
	limit   int
	window  time.Duration
	now     func() time.Time

	stopCh chan struct{}
	stop   sync.Once
}

// NewRateLimiter allows limit writes per client in any window-long span
// and starts a goroutine that forgets idle clients. Call Stop to end it.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*hits),
		limit:   limit,
		window:  window,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stop.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) client(key string) *hits {
	rl.mu.RLock()
	h := rl.clients[key]
	rl.mu.RUnlock()
	if h != nil {
		return h
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if h = rl.clients[key]; h == nil {
		h = &hits{}
		rl.clients[key] = h
	}
	return h
}

// allow records a request for key if it fits the window. A refused request
// is not recorded; retry is how long until the oldest hit expires.
func (rl *RateLimiter) allow(key string) (ok bool, retry time.Duration) {
	h := rl.client(key)
	now := rl.now()
	cutoff := now.Add(-rl.window)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.expire(cutoff) >= rl.limit {
		return false, h.times[0].Sub(cutoff)
	}
	h.times = append(h.times, now)
	return true, 0
}

// cleanup forgets clients whose every hit has left the window.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, h := range rl.clients {
		h.mu.Lock()
		idle := h.expire(cutoff) == 0
		h.mu.Unlock()
		if idle {
			delete(rl.clients, key)
		}
	}
}

// Middleware refuses over-limit requests with 429, a JSON error body, and
// a Retry-After header in whole seconds.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retry := rl.allow(clientKey(r))
		if ok {
			next.ServeHTTP(w, r)
			return
		}
		metrics.RateLimited.Inc()
		secs := max(int(retry.Round(time.Second)/time.Second), 1)
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
	})
}

// clientKey prefers the actor identity so clients behind one proxy do not
// share a budget.
func clientKey(r *http.Request) string {
	if actor := strings.TrimSpace(r.Header.Get(ActorHeader)); actor != "" {
		return "actor:" + actor
	}
	return "ip:" + clientIP(r)
}

// clientIP returns the originating address: the leftmost X-Forwarded-For
// entry, then X-Real-IP, then RemoteAddr without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
