package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tbourn/go-survey-backend/internal/domain"
)

func TestLedger_Debit_InsufficientDoesNotMutate(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice", 3)
	l := NewLedger(db)

	_, err := l.Debit(context.Background(), u.ID, 5, domain.TxChat)
	var qe *QuotaError
	if !errors.As(err, &qe) || qe.Balance != 3 {
		t.Fatalf("expected QuotaError{3}, got %v", err)
	}
	if !errors.Is(err, ErrInsufficientQuota) {
		t.Fatalf("QuotaError must match ErrInsufficientQuota")
	}
	if got := balanceOf(t, db, u.ID); got != 3 {
		t.Fatalf("balance mutated: %d", got)
	}
	if n := countRows(t, db, &domain.TokenTransaction{}); n != 0 {
		t.Fatalf("expected no ledger rows, got %d", n)
	}
}

func TestLedger_Debit_WritesJournal(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice", 100)
	l := NewLedger(db)

	bal, err := l.Debit(context.Background(), u.ID, 10, domain.TxSurvey)
	if err != nil || bal != 90 {
		t.Fatalf("Debit = %d, %v", bal, err)
	}
	hist, err := l.History(context.Background(), u.ID, 10)
	if err != nil || len(hist) != 1 {
		t.Fatalf("History = %v, %v", hist, err)
	}
	if e := hist[0]; e.Amount != -10 || e.BalanceAfter != 90 || e.Kind != domain.TxSurvey {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestLedger_Debit_Validation(t *testing.T) {
	db := newSvcDB(t)
	l := NewLedger(db)

	if _, err := l.Debit(context.Background(), 1, 0, domain.TxChat); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := l.Debit(context.Background(), 999, 1, domain.TxChat); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLedger_Debit_ConcurrentNeverNegative(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice", 50)
	l := NewLedger(db)

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Debit(context.Background(), u.ID, 7, domain.TxChat)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrInsufficientQuota):
				fail++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	// 50 / 7 = 7 successful debits, 1 token left.
	if ok != 7 || fail != workers-7 {
		t.Fatalf("expected 7 successes, got ok=%d fail=%d", ok, fail)
	}
	if got := balanceOf(t, db, u.ID); got != 1 {
		t.Fatalf("expected balance 1, got %d", got)
	}
	if n := countRows(t, db, &domain.TokenTransaction{}); n != 7 {
		t.Fatalf("expected 7 ledger rows, got %d", n)
	}
}

func TestLedger_Charge_ClampsAtZero(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice", 3)
	l := NewLedger(db)

	charged, bal, err := l.Charge(context.Background(), u.ID, 5, domain.TxChat)
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if charged != 3 || bal != 0 {
		t.Fatalf("expected charged=3 balance=0, got %d %d", charged, bal)
	}
	hist, _ := l.History(context.Background(), u.ID, 10)
	if len(hist) != 1 || hist[0].Requested != 5 || hist[0].Amount != -3 {
		t.Fatalf("journal must record requested and charged: %+v", hist)
	}
}

func TestLedger_Charge_ZeroCostWritesNothing(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice", 3)
	l := NewLedger(db)

	charged, bal, err := l.Charge(context.Background(), u.ID, 0, domain.TxChat)
	if err != nil || charged != 0 || bal != 3 {
		t.Fatalf("Charge(0) = %d, %d, %v", charged, bal, err)
	}
	if n := countRows(t, db, &domain.TokenTransaction{}); n != 0 {
		t.Fatalf("expected no ledger rows, got %d", n)
	}
	if _, _, err := l.Charge(context.Background(), 999, 1, domain.TxChat); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLedger_Credit_DedupesByReference(t *testing.T) {
	db := newSvcDB(t)
	u := seedUser(t, db, "alice", 0)
	l := NewLedger(db)
	ctx := context.Background()

	bal, err := l.Credit(ctx, u.ID, 10000, domain.TxPurchaseTokens, "pi_1")
	if err != nil || bal != 10000 {
		t.Fatalf("Credit = %d, %v", bal, err)
	}
	if _, err := l.Credit(ctx, u.ID, 10000, domain.TxPurchaseTokens, "pi_1"); !errors.Is(err, ErrAlreadyCredited) {
		t.Fatalf("expected ErrAlreadyCredited, got %v", err)
	}
	if got := balanceOf(t, db, u.ID); got != 10000 {
		t.Fatalf("replay must not credit twice, balance=%d", got)
	}

	// Unreferenced credits are never deduplicated.
	for i := 0; i < 2; i++ {
		if _, err := l.Credit(ctx, u.ID, 1, domain.TxSignupGrant, ""); err != nil {
			t.Fatalf("Credit without reference: %v", err)
		}
	}
	if got := balanceOf(t, db, u.ID); got != 10002 {
		t.Fatalf("expected 10002, got %d", got)
	}

	if _, err := l.Credit(ctx, 999, 1, domain.TxPurchaseTokens, "pi_2"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := l.Credit(ctx, u.ID, -1, domain.TxPurchaseTokens, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
