package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/workconnect/server/internal/workconnect/store"
	"github.com/workconnect/server/internal/workconnect/store/memory"
	"github.com/workconnect/server/internal/workconnect/types"
)

func TestAccrueDaily_FirstAccrualCountsFromJoin(t *testing.T) {
	svc, ms, _ := newVacationFixture(testDay) // 2026-03-10
	ctx := context.Background()

	ms.AddUser(types.User{
		ID:                   "emp-1",
		VacationDaysPerMonth: 1.5,
		VacationBalance:      0,
		JoinDate:             date(2026, 3, 1),
	})

	balance, err := svc.AccrueDaily(ctx, "emp-1")
	if err != nil {
		t.Fatalf("AccrueDaily: %v", err)
	}

	// Never accrued: counts from the day before joinDate, so March 1..10
	// inclusive is 10 elapsed days at 1.5*12/365 per day = 0.4932 -> 0.49.
	if math.Abs(balance-0.49) > 1e-9 {
		t.Errorf("expected balance 0.49, got %f", balance)
	}

	u, _ := ms.Get(ctx, "emp-1")
	if u.LastAccrualDate != "2026-03-10" {
		t.Errorf("expected lastAccrualDate advanced to today, got %q", u.LastAccrualDate)
	}
}

func TestAccrueDaily_SecondCallSameDayIsNoOp(t *testing.T) {
	svc, ms, _ := newVacationFixture(testDay)
	ctx := context.Background()

	ms.AddUser(types.User{
		ID:                   "emp-1",
		VacationDaysPerMonth: 1.5,
		JoinDate:             date(2026, 3, 1),
	})

	first, err := svc.AccrueDaily(ctx, "emp-1")
	if err != nil {
		t.Fatalf("first AccrueDaily: %v", err)
	}
	second, err := svc.AccrueDaily(ctx, "emp-1")
	if err != nil {
		t.Fatalf("second AccrueDaily: %v", err)
	}
	if first != second {
		t.Errorf("same-day accrual must not add again: %f vs %f", first, second)
	}
}

func TestAccrueDaily_AccruesElapsedDaysSinceLast(t *testing.T) {
	svc, ms, _ := newVacationFixture(testDay)
	ctx := context.Background()

	ms.AddUser(types.User{
		ID:                   "emp-1",
		VacationDaysPerMonth: 1.5,
		VacationBalance:      2.0,
		JoinDate:             date(2026, 1, 1),
		LastAccrualDate:      "2026-03-05",
	})

	balance, err := svc.AccrueDaily(ctx, "emp-1")
	if err != nil {
		t.Fatalf("AccrueDaily: %v", err)
	}

	// 5 elapsed days at 18/365 per day = 0.2466 -> balance 2.25.
	if math.Abs(balance-2.25) > 1e-9 {
		t.Errorf("expected balance 2.25, got %f", balance)
	}
}

func TestAccrueDaily_ZeroQuotaIsNoOp(t *testing.T) {
	svc, ms, _ := newVacationFixture(testDay)
	ctx := context.Background()

	ms.AddUser(types.User{
		ID:              "emp-1",
		VacationBalance: 4.0,
		JoinDate:        date(2026, 1, 1),
	})

	balance, err := svc.AccrueDaily(ctx, "emp-1")
	if err != nil {
		t.Fatalf("AccrueDaily: %v", err)
	}
	if balance != 4.0 {
		t.Errorf("zero quota must not accrue, got %f", balance)
	}

	u, _ := ms.Get(ctx, "emp-1")
	if u.LastAccrualDate != "" {
		t.Errorf("zero quota must not advance lastAccrualDate, got %q", u.LastAccrualDate)
	}
}

func TestAccrueDaily_UnknownUser(t *testing.T) {
	svc, _, _ := newVacationFixture(testDay)

	_, err := svc.AccrueDaily(context.Background(), "ghost")
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestAccrueDaily_LastAccrualBeforeJoinIsFloored(t *testing.T) {
	svc, ms, _ := newVacationFixture(testDay)
	ctx := context.Background()

	// lastAccrualDate predating the join date must not over-accrue.
	ms.AddUser(types.User{
		ID:                   "emp-1",
		VacationDaysPerMonth: 1.5,
		JoinDate:             date(2026, 3, 1),
		LastAccrualDate:      "2025-01-01",
	})

	balance, err := svc.AccrueDaily(ctx, "emp-1")
	if err != nil {
		t.Fatalf("AccrueDaily: %v", err)
	}
	if math.Abs(balance-0.49) > 1e-9 {
		t.Errorf("expected accrual floored at join date (0.49), got %f", balance)
	}
}

// deductingUserStore commits an approval-style balance deduction right
// before the accrual transaction runs, the way a vacation decision that
// serialized just ahead of the accrual on the write queue would.
type deductingUserStore struct {
	*memory.Store
	days     float64
	deducted bool
}

func (s *deductingUserStore) RunAccrualTx(ctx context.Context, userID string, fn func(tx store.AccrualTx) error) error {
	if !s.deducted {
		s.deducted = true
		u, err := s.Store.Get(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.Store.ApplyAccrual(ctx, userID, u.VacationBalance-s.days, u.LastAccrualDate); err != nil {
			return err
		}
	}
	return s.Store.RunAccrualTx(ctx, userID, fn)
}

func TestAccrueDaily_DoesNotOverwriteConcurrentDeduction(t *testing.T) {
	ms := memory.New()
	us := &deductingUserStore{Store: ms, days: 4}
	clk := &testClock{t: testDay}
	svc := NewVacationService(ms, us, silentLogger())
	svc.now = clk.Now
	ctx := context.Background()

	ms.AddUser(types.User{
		ID:                   "emp-1",
		VacationDaysPerMonth: 1.5,
		VacationBalance:      10,
		JoinDate:             date(2026, 1, 1),
		LastAccrualDate:      "2026-03-05",
	})

	balance, err := svc.AccrueDaily(ctx, "emp-1")
	if err != nil {
		t.Fatalf("AccrueDaily: %v", err)
	}

	// The deduction lands first (10 -> 6), then 5 elapsed days at 18/365
	// accrue on top of the deducted balance: 6.25, not 10.25.
	if math.Abs(balance-6.25) > 1e-9 {
		t.Errorf("expected balance 6.25, got %f", balance)
	}
	u, _ := ms.Get(ctx, "emp-1")
	if math.Abs(u.VacationBalance-6.25) > 1e-9 {
		t.Errorf("deduction lost: stored balance %f", u.VacationBalance)
	}
}
