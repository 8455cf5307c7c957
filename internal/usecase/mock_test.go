//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"photo-market/internal/domain"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
	"photo-market/internal/domain/ports/repository"
)

// =============================
// Adapters
// =============================

// ---- Mock ObjectStorage ----

type MockStorage struct {
	mu       sync.Mutex
	Uploaded []string
	Deleted  []string

	UploadFunc     func(ctx context.Context, blob *model.ImageBlob) (string, error)
	DeleteManyFunc func(ctx context.Context, urls []string) error
}

var _ adapter.ObjectStorage = (*MockStorage)(nil)

func (m *MockStorage) Upload(ctx context.Context, blob *model.ImageBlob) (string, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, blob)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	url := fmt.Sprintf("https://cdn.example/ads/%d-%s", len(m.Uploaded)+1, blob.Filename)
	m.Uploaded = append(m.Uploaded, url)
	return url, nil
}

func (m *MockStorage) DeleteMany(ctx context.Context, urls []string) error {
	if m.DeleteManyFunc != nil {
		return m.DeleteManyFunc(ctx, urls)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, urls...)
	return nil
}

// ---- Mock ChannelPublisher ----

type MockPublisher struct {
	mu        sync.Mutex
	Published []string

	PublishAdFunc func(ctx context.Context, ad *model.Ad) (int, error)
}

var _ adapter.ChannelPublisher = (*MockPublisher)(nil)

func (m *MockPublisher) PublishAd(ctx context.Context, ad *model.Ad) (int, error) {
	if m.PublishAdFunc != nil {
		return m.PublishAdFunc(ctx, ad)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, ad.ID)
	return 100 + len(m.Published), nil
}

// ---- Inline runner: executes tasks synchronously ----

type inlineRunner struct {
	mu    sync.Mutex
	Errs  []error
	Calls int
}

func (r *inlineRunner) Submit(task func(ctx context.Context) error) error {
	r.mu.Lock()
	r.Calls++
	r.mu.Unlock()
	if err := task(context.Background()); err != nil {
		r.mu.Lock()
		r.Errs = append(r.Errs, err)
		r.mu.Unlock()
	}
	return nil
}

// ---- Mock PaymentGateway (adapter) ----

type MockPaymentGateway struct {
	NameVal string

	RequestPaymentFunc func(ctx context.Context, amount int64, description, callbackURL string, meta map[string]interface{}) (authority, payURL string, err error)
	VerifyPaymentFunc  func(ctx context.Context, authority string, expectedAmount int64) (refID string, err error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string {
	if m.NameVal == "" {
		return "mockpay"
	}
	return m.NameVal
}

func (m *MockPaymentGateway) RequestPayment(ctx context.Context, amount int64, description, callbackURL string, meta map[string]interface{}) (string, string, error) {
	if m.RequestPaymentFunc != nil {
		return m.RequestPaymentFunc(ctx, amount, description, callbackURL, meta)
	}
	auth := "AUTH-" + uuid.NewString()
	return auth, "https://pay.example/" + auth, nil
}

func (m *MockPaymentGateway) VerifyPayment(ctx context.Context, authority string, expectedAmount int64) (string, error) {
	if m.VerifyPaymentFunc != nil {
		return m.VerifyPaymentFunc(ctx, authority, expectedAmount)
	}
	return "REF-" + authority, nil
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User
	byTG map[int64]*model.User

	SaveFunc             func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByTelegramIDFunc func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
	FindByIDFunc         func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}, byTG: map[int64]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	r.byID[cp.ID] = &cp
	r.byTG[cp.TelegramID] = &cp
	return nil
}

func (r *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if r.FindByTelegramIDFunc != nil {
		return r.FindByTelegramIDFunc(ctx, tx, tgID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byTG[tgID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(r.byID))
	for _, u := range r.byID {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockUserRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byTG, u.TelegramID)
	return nil
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

func (r *MockUserRepo) ResetFreeAds(ctx context.Context, tx repository.Tx, count int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.byID {
		if !u.IsPremium {
			u.FreeAdsCount = count
			n++
		}
	}
	return n, nil
}

// ---- Mock AdRepository ----

type MockAdRepo struct {
	mu     sync.Mutex
	data   map[string]*model.Ad
	images map[string][]model.AdImage

	SaveFunc       func(ctx context.Context, tx repository.Tx, ad *model.Ad) error
	SaveImagesFunc func(ctx context.Context, tx repository.Tx, adID string, images []model.AdImage) error
	ExpireDueFunc  func(ctx context.Context, tx repository.Tx, now time.Time) (int, error)
}

var _ repository.AdRepository = (*MockAdRepo)(nil)

func NewMockAdRepo() *MockAdRepo {
	return &MockAdRepo{data: map[string]*model.Ad{}, images: map[string][]model.AdImage{}}
}

func (r *MockAdRepo) Save(ctx context.Context, tx repository.Tx, ad *model.Ad) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, ad)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ad
	cp.Images = nil
	r.data[ad.ID] = &cp
	return nil
}

func (r *MockAdRepo) SaveImages(ctx context.Context, tx repository.Tx, adID string, images []model.AdImage) error {
	if r.SaveImagesFunc != nil {
		return r.SaveImagesFunc(ctx, tx, adID, images)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[adID] = append([]model.AdImage(nil), images...)
	return nil
}

func (r *MockAdRepo) get(id string) (*model.Ad, bool) {
	a, ok := r.data[id]
	if !ok {
		return nil, false
	}
	cp := *a
	cp.Images = append([]model.AdImage(nil), r.images[id]...)
	return &cp, true
}

func (r *MockAdRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.get(id); ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockAdRepo) List(ctx context.Context, tx repository.Tx, f model.AdFilter) ([]*model.Ad, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*model.Ad
	for id, a := range r.data {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Category != "" && a.Category != f.Category {
			continue
		}
		if f.Province != "" && a.Province != f.Province {
			continue
		}
		if f.City != "" && a.City != f.City {
			continue
		}
		cp, _ := r.get(id)
		all = append(all, cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].IsFeatured != all[j].IsFeatured {
			return all[i].IsFeatured
		}
		if all[i].IsBoosted != all[j].IsBoosted {
			return all[i].IsBoosted
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := len(all)
	off := f.Offset()
	if off >= total {
		return nil, total, nil
	}
	all = all[off:]
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (r *MockAdRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Ad
	for id, a := range r.data {
		if a.UserID == userID {
			cp, _ := r.get(id)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MockAdRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, id)
	delete(r.images, id)
	return nil
}

func (r *MockAdRepo) SetTelegramMessageID(ctx context.Context, tx repository.Tx, id string, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.TelegramMessageID = &messageID
	return nil
}

func (r *MockAdRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	if r.ExpireDueFunc != nil {
		return r.ExpireDueFunc(ctx, tx, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.data {
		if (a.Status == model.AdStatusPending || a.Status == model.AdStatusApproved) && a.IsExpired(now) {
			a.Status = model.AdStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *MockAdRepo) ClearPromotions(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.data {
		changed := false
		if a.IsFeatured && a.FeaturedUntil != nil && !a.FeaturedUntil.After(now) {
			a.IsFeatured, a.FeaturedUntil, changed = false, nil, true
		}
		if a.IsBoosted && a.BoostUntil != nil && !a.BoostUntil.After(now) {
			a.IsBoosted, a.BoostUntil, changed = false, nil, true
		}
		if changed {
			n++
		}
	}
	return n, nil
}

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu   sync.Mutex
	data map[string]*model.Payment

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}}
}

func (r *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) FindByAuthority(ctx context.Context, tx repository.Tx, authority string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if p.Authority == authority {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockPaymentRepo) Stats(ctx context.Context, tx repository.Tx) (model.PaymentStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s model.PaymentStats
	for _, p := range r.data {
		s.Total++
		switch p.Status {
		case model.PaymentStatusCompleted:
			s.Completed++
			s.Revenue += p.Amount
		case model.PaymentStatusPending:
			s.Pending++
		case model.PaymentStatusFailed:
			s.Failed++
		}
	}
	return s, nil
}

func (r *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.Status == model.PaymentStatusPending && p.Authority != "" && p.CreatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock SettingRepository ----

type MockSettingRepo struct {
	mu   sync.Mutex
	data map[string]*model.Setting

	GetFunc func(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error)
}

var _ repository.SettingRepository = (*MockSettingRepo)(nil)

func NewMockSettingRepo() *MockSettingRepo {
	return &MockSettingRepo{data: map[string]*model.Setting{}}
}

func (r *MockSettingRepo) Get(ctx context.Context, tx repository.Tx, key string) (*model.Setting, error) {
	if r.GetFunc != nil {
		return r.GetFunc(ctx, tx, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.data[key]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockSettingRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Setting, 0, len(r.data))
	for _, s := range r.data {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *MockSettingRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.data[s.Key] = &cp
	return nil
}

func (r *MockSettingRepo) Delete(ctx context.Context, tx repository.Tx, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, key)
	return nil
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc overrides it.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

var errBoom = errors.New("boom")

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func seedUser(repo *MockUserRepo, id string, tgID int64, mut ...func(*model.User)) *model.User {
	u := &model.User{ID: id, TelegramID: tgID, PhoneNumber: "+989120000000", FreeAdsCount: 1}
	for _, m := range mut {
		m(u)
	}
	_ = repo.Save(context.Background(), nil, u)
	return u
}
