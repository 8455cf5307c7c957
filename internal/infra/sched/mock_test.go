//go:build !integration

package sched

import (
	"context"
	"sync"
	"time"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
)

type mockAds struct {
	ExpireDueFunc       func(ctx context.Context, now time.Time) (int, error)
	ClearPromotionsFunc func(ctx context.Context, now time.Time) (int, error)
}

func (m *mockAds) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	if m.ExpireDueFunc != nil {
		return m.ExpireDueFunc(ctx, now)
	}
	return 0, nil
}

func (m *mockAds) ClearPromotions(ctx context.Context, now time.Time) (int, error) {
	if m.ClearPromotionsFunc != nil {
		return m.ClearPromotionsFunc(ctx, now)
	}
	return 0, nil
}

type mockUsers struct {
	mu     sync.Mutex
	resets int
}

func (m *mockUsers) ResetMonthlyFreeAds(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	return 3, nil
}

func (m *mockUsers) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

type mockSettings struct {
	mu   sync.Mutex
	data map[string]*model.Setting
}

func newMockSettings() *mockSettings { return &mockSettings{data: map[string]*model.Setting{}} }

func (m *mockSettings) Get(ctx context.Context, key string) (*model.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.data[key]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockSettings) Set(ctx context.Context, key, value, desc string) (*model.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &model.Setting{Key: key, Value: value, Description: desc}
	m.data[key] = s
	return s, nil
}

type mockReconciler struct {
	mu   sync.Mutex
	ages []time.Duration
}

func (m *mockReconciler) ReconcileStale(ctx context.Context, age time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ages = append(m.ages, age)
	return 1, nil
}
