package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection: shared-cache SQLite reports table locks instead of
	// waiting when writers overlap.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.User{}, &domain.Survey{}, &domain.TokenTransaction{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, balance int64) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, TokenBalance: balance}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedUserWithCreds(t *testing.T, db *gorm.DB, name string, balance int64) *domain.User {
	t.Helper()
	tok, dc, brand := "tok", "iad1", "brand"
	u := &domain.User{
		Username:            name,
		TokenBalance:        balance,
		QualtricsAPIToken:   &tok,
		QualtricsDatacenter: &dc,
		QualtricsBrandID:    &brand,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func balanceOf(t *testing.T, db *gorm.DB, id uint) int64 {
	t.Helper()
	var u domain.User
	if err := db.First(&u, id).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	return u.TokenBalance
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// ---------- fakes ----------

type fakeAI struct {
	mu       sync.Mutex
	text     string
	tokens   int64
	err      error
	calls    int
	lastMsgs []domain.Message
	block    bool
}

func (f *fakeAI) Complete(ctx context.Context, msgs []domain.Message) (domain.Completion, error) {
	f.mu.Lock()
	f.calls++
	f.lastMsgs = msgs
	f.mu.Unlock()
	return f.respond(ctx)
}

func (f *fakeAI) GenerateSurvey(ctx context.Context, _ string) (domain.Completion, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.respond(ctx)
}

func (f *fakeAI) respond(ctx context.Context) (domain.Completion, error) {
	if f.block {
		<-ctx.Done()
		return domain.Completion{}, ctx.Err()
	}
	if f.err != nil {
		return domain.Completion{}, f.err
	}
	return domain.Completion{Text: f.text, TokensUsed: f.tokens}, nil
}

func (f *fakeAI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePlatform struct {
	valid       bool
	verifyErr   error
	createErr   error
	surveyID    string
	verifyCalls int
	createCalls int
	lastDoc     *domain.SurveyDocument
	lastCreds   domain.QualtricsCredentials
}

func (f *fakePlatform) VerifyCredentials(_ context.Context, c domain.QualtricsCredentials) (bool, error) {
	f.verifyCalls++
	f.lastCreds = c
	return f.valid, f.verifyErr
}

func (f *fakePlatform) CreateSurvey(_ context.Context, c domain.QualtricsCredentials, doc *domain.SurveyDocument) (string, error) {
	f.createCalls++
	f.lastCreds = c
	f.lastDoc = doc
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.surveyID, nil
}

type fakeGateway struct {
	secret    string
	createErr error
	lastPlan  domain.Plan
	lastUser  uint
	event     domain.PaymentEvent
	verifyErr error
}

func (f *fakeGateway) CreateIntent(_ context.Context, userID uint, plan domain.Plan) (string, error) {
	f.lastUser, f.lastPlan = userID, plan
	return f.secret, f.createErr
}

func (f *fakeGateway) VerifyWebhook(_ []byte, _ string) (domain.PaymentEvent, error) {
	return f.event, f.verifyErr
}

type fakeArchive struct {
	err  error
	puts map[string][]byte
}

func (f *fakeArchive) Put(_ context.Context, userID uint, qid string, doc []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[fmt.Sprintf("%d/%s", userID, qid)] = doc
	return nil
}

var errProvider = errors.New("provider unavailable")
