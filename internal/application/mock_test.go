//go:build !integration

package application_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"photo-market/internal/application"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
	"photo-market/internal/infra/i18n"
	"photo-market/internal/infra/memstore"
	"photo-market/internal/usecase"
)

// ---- Messenger ----

type sentMessage struct {
	ChatID   int64
	Text     string
	Keyboard [][]adapter.ReplyButton
	Buttons  [][]adapter.InlineButton
}

type mockMessenger struct {
	mu   sync.Mutex
	Sent []sentMessage

	DownloadFileFunc func(ctx context.Context, fileID string) (*model.ImageBlob, error)
}

var _ adapter.TelegramBotAdapter = (*mockMessenger)(nil)

func (m *mockMessenger) record(msg sentMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
}

func (m *mockMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.record(sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *mockMessenger) SendKeyboard(ctx context.Context, chatID int64, text string, rows [][]adapter.ReplyButton) error {
	m.record(sentMessage{ChatID: chatID, Text: text, Keyboard: rows})
	return nil
}

func (m *mockMessenger) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	m.record(sentMessage{ChatID: chatID, Text: text, Buttons: rows})
	return nil
}

func (m *mockMessenger) DownloadFile(ctx context.Context, fileID string) (*model.ImageBlob, error) {
	if m.DownloadFileFunc != nil {
		return m.DownloadFileFunc(ctx, fileID)
	}
	return &model.ImageBlob{Content: []byte(fileID), Filename: fileID + ".jpg", MimeType: "image/jpeg", Size: len(fileID)}, nil
}

func (m *mockMessenger) Last() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return sentMessage{}
	}
	return m.Sent[len(m.Sent)-1]
}

func (m *mockMessenger) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// ---- Storage ----

type mockStorage struct {
	mu       sync.Mutex
	Uploaded []string
	Deleted  []string

	UploadFunc func(ctx context.Context, blob *model.ImageBlob) (string, error)
}

func (m *mockStorage) Upload(ctx context.Context, blob *model.ImageBlob) (string, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, blob)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	url := fmt.Sprintf("https://cdn.example/ads/%d-%s", len(m.Uploaded)+1, blob.Filename)
	m.Uploaded = append(m.Uploaded, url)
	return url, nil
}

func (m *mockStorage) DeleteMany(ctx context.Context, urls []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, urls...)
	return nil
}

// ---- Usecases ----

type mockUsers struct {
	mu    sync.Mutex
	users map[int64]*model.User

	CreateOrUpdateFunc func(ctx context.Context, tgID int64, p model.UserProfile) (*model.User, error)
}

func newMockUsers() *mockUsers { return &mockUsers{users: map[int64]*model.User{}} }

func (m *mockUsers) add(tgID int64, mut ...func(*model.User)) *model.User {
	u := &model.User{ID: fmt.Sprintf("u-%d", tgID), TelegramID: tgID, PhoneNumber: "09120000000", FreeAdsCount: 1}
	for _, f := range mut {
		f(u)
	}
	m.mu.Lock()
	m.users[tgID] = u
	m.mu.Unlock()
	return u
}

func (m *mockUsers) FindByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[tgID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *mockUsers) CreateOrUpdate(ctx context.Context, tgID int64, p model.UserProfile) (*model.User, error) {
	if m.CreateOrUpdateFunc != nil {
		return m.CreateOrUpdateFunc(ctx, tgID, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[tgID]
	if !ok {
		nu, err := model.NewUser("", tgID, p)
		if err != nil {
			return nil, err
		}
		m.users[tgID] = nu
		return nu, nil
	}
	u.Apply(p)
	return u, nil
}

type mockAds struct {
	mu      sync.Mutex
	Created []model.AdPayload
	Images  [][]model.ImageBlob
	Status  model.AdStatus
	List    []*model.Ad

	CreateFunc func(ctx context.Context, ownerID string, p model.AdPayload, images []model.ImageBlob) (*model.Ad, error)
}

func (m *mockAds) Create(ctx context.Context, ownerID string, p model.AdPayload, images []model.ImageBlob) (*model.Ad, error) {
	m.mu.Lock()
	m.Created = append(m.Created, p)
	m.Images = append(m.Images, images)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ownerID, p, images)
	}
	status := m.Status
	if status == "" {
		status = model.AdStatusPending
	}
	return &model.Ad{ID: fmt.Sprintf("ad-%d", len(m.Created)), UserID: ownerID, Title: p.Title, Status: status}, nil
}

func (m *mockAds) ListByUser(ctx context.Context, userID string) ([]*model.Ad, error) {
	return m.List, nil
}

func (m *mockAds) CreatedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Created)
}

type mockPayments struct {
	Disabled  bool
	Initiated []model.PaymentType

	InitiateFunc func(ctx context.Context, userID string, t model.PaymentType, adID string) (*model.Payment, string, error)
}

func (m *mockPayments) Enabled() bool { return !m.Disabled }

func (m *mockPayments) Initiate(ctx context.Context, userID string, t model.PaymentType, adID string) (*model.Payment, string, error) {
	m.Initiated = append(m.Initiated, t)
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, userID, t, adID)
	}
	p, err := model.NewPayment(userID, t, adID, 30000, "mock")
	if err != nil {
		return nil, "", err
	}
	return p, "https://pay.example/" + p.ID, nil
}

type mockSettings struct{}

func (mockSettings) WelcomeMessage(ctx context.Context) string { return model.DefaultWelcomeMessage }
func (mockSettings) AdGuidelines(ctx context.Context) string   { return model.DefaultAdGuidelines }
func (mockSettings) Price(ctx context.Context, t model.PaymentType) int64 {
	_, def := model.PriceSettingFor(t)
	return def
}

// ---- Harness ----

type botHarness struct {
	bot      *application.BotFacade
	users    *mockUsers
	ads      *mockAds
	payments *mockPayments
	msgr     *mockMessenger
	storage  *mockStorage
	sessions *memstore.SessionStore
	tr       *i18n.Translator
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// newBotHarness wires a facade over in-memory collaborators; opts adjust the
// dependencies before construction.
func newBotHarness(t *testing.T, opts ...func(*application.BotDeps)) *botHarness {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "fa")
	if err != nil {
		t.Fatalf("load translations: %v", err)
	}
	h := &botHarness{
		users:    newMockUsers(),
		ads:      &mockAds{},
		payments: &mockPayments{},
		msgr:     &mockMessenger{},
		storage:  &mockStorage{},
		sessions: memstore.NewSessionStore(0),
		tr:       tr,
	}
	deps := application.BotDeps{
		Users:      h.users,
		Ads:        h.ads,
		Payments:   h.payments,
		Settings:   mockSettings{},
		Validator:  usecase.NewContentValidator(),
		Sessions:   h.sessions,
		Locker:     memstore.NewLocker(),
		Messenger:  h.msgr,
		Storage:    h.storage,
		Translator: tr,
		Logger:     newTestLogger(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	bot, err := application.NewBotFacade(deps)
	if err != nil {
		t.Fatalf("NewBotFacade failed: %v", err)
	}
	h.bot = bot
	return h
}

func (h *botHarness) session(t *testing.T, tgID int64) *model.RegistrationSession {
	t.Helper()
	s, err := h.sessions.Get(context.Background(), tgID)
	if err != nil {
		t.Fatalf("session get: %v", err)
	}
	return s
}

func (h *botHarness) text(tgID int64, text string) {
	h.bot.HandleText(context.Background(), application.Update{TelegramID: tgID, Text: text})
}

func (h *botHarness) photo(tgID int64, fileID string) {
	h.bot.HandlePhoto(context.Background(), application.Update{TelegramID: tgID, Photo: &application.Photo{FileID: fileID}})
}

func (h *botHarness) location(tgID int64, lat, lon float64) {
	h.bot.HandleLocation(context.Background(), application.Update{TelegramID: tgID, Location: &application.Location{Latitude: lat, Longitude: lon}})
}

func (h *botHarness) callback(tgID int64, data string) {
	h.bot.HandleCallback(context.Background(), application.Update{TelegramID: tgID, Text: data})
}

// fillToConfirmation drives a user from the menu to the confirmation step.
func (h *botHarness) fillToConfirmation(t *testing.T, tgID int64) {
	t.Helper()
	h.text(tgID, application.LabelRegisterAd)
	h.text(tgID, "دوربین کانن 5D Mark IV")
	h.text(tgID, "بدنه سالم، شاتر 20 هزار")
	h.photo(tgID, fmt.Sprintf("f-%d-1", tgID))
	h.photo(tgID, fmt.Sprintf("f-%d-2", tgID))
	h.text(tgID, application.DoneText)
	h.text(tgID, model.CategoryCamera)
	h.text(tgID, model.ConditionLikeNew)
	h.text(tgID, "Canon")
	h.text(tgID, "تهران")
	h.text(tgID, "تهران")
	h.text(tgID, application.LabelSkipLocation)
	h.text(tgID, "45,000,000 تومان")
	if s := h.session(t, tgID); s.Step != model.StepWaitingConfirmation {
		t.Fatalf("expected confirmation step, got %q", s.Step)
	}
}
