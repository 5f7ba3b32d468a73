package store

import (
	"context"
	"sort"
	"sync"

	"pinmap/internal/registration/models"
	"pinmap/pkg/platform/sentinel"
)

// InMemory keeps accounts in maps under one mutex. Create checks and writes
// under the same lock, which is what makes it a valid stand-in for the
// database's unique constraints in race tests.
type InMemory struct {
	mu         sync.RWMutex
	byID       map[string]models.Account
	byNickname map[string]string // nickname -> id
	byHandle   map[string]string // normalized handle -> id, sparse
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:       make(map[string]models.Account),
		byNickname: make(map[string]string),
		byHandle:   make(map[string]string),
	}
}

func (s *InMemory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byNickname[account.Nickname]; taken {
		return ErrNicknameTaken
	}
	if account.Handle != "" {
		if _, taken := s.byHandle[account.Handle]; taken {
			return ErrHandleTaken
		}
	}

	s.byID[account.ID.String()] = *account
	s.byNickname[account.Nickname] = account.ID.String()
	if account.Handle != "" {
		s.byHandle[account.Handle] = account.ID.String()
	}
	return nil
}

func (s *InMemory) FindByNickname(_ context.Context, nickname string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNickname[nickname]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	account := s.byID[id]
	return &account, nil
}

func (s *InMemory) FindByHandle(_ context.Context, handle string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if handle == "" {
		return nil, sentinel.ErrNotFound
	}
	id, ok := s.byHandle[handle]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	account := s.byID[id]
	return &account, nil
}

func (s *InMemory) FindByOriginAddress(_ context.Context, addr string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if addr == "" {
		return nil, sentinel.ErrNotFound
	}
	for _, account := range s.byID {
		if account.OriginAddress == addr {
			a := account
			return &a, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Account, 0, len(s.byID))
	for _, account := range s.byID {
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
