// Package service implements the marketplace business logic.
package service

import (
	"log/slog"
	"sync"

	"homegrid/internal/auth"
	"homegrid/internal/config"
	"homegrid/internal/push"
	"homegrid/internal/store"
)

// Service wires the store, the push router and auth helpers together.
type Service struct {
	store  store.Store
	router *push.Router
	tokens *auth.TokenIssuer
	cfg    *config.Config
	log    *slog.Logger

	// chatLocks serializes mutations per chat id. Each lock is held around
	// the store transaction and the non-blocking push enqueue only.
	chatLocks keyedMutex
}

// New creates a service.
func New(st store.Store, router *push.Router, tokens *auth.TokenIssuer, cfg *config.Config, log *slog.Logger) *Service {
	return &Service{
		store:  st,
		router: router,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
	}
}

// keyedMutex hands out one mutex per key. Mutexes are retained for the
// process lifetime; the key space is bounded by the number of chats a
// single instance actively serves.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) *sync.Mutex {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m
}
