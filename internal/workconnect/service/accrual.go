package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/workconnect/server/internal/workconnect/store"
)

// AccrueDaily adds the vacation days earned since the user's last accrual
// and advances lastAccrualDate to today. Proration: monthlyQuota × 12 / 365
// per elapsed day, counted from the later of joinDate and lastAccrualDate.
// The stored balance is rounded half-up to two decimals.
//
// The profile read, the computation, and the balance write run inside one
// accrual transaction, so a deduction committed by a vacation decision
// between them cannot be overwritten.
//
// Re-entrant calls for the same user within this process are coalesced: the
// second caller gets the current balance back without accruing again.
func (s *VacationService) AccrueDaily(ctx context.Context, userID string) (float64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrEmployeeNotFound
	}

	s.mu.Lock()
	if s.accruing[userID] {
		s.mu.Unlock()
		u, err := s.users.Get(ctx, userID)
		if err != nil {
			return 0, err
		}
		if u == nil {
			return 0, ErrEmployeeNotFound
		}
		return u.VacationBalance, nil
	}
	s.accruing[userID] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.accruing, userID)
		s.mu.Unlock()
	}()

	var balance float64
	var accruedDays int64
	err := s.users.RunAccrualTx(ctx, userID, func(tx store.AccrualTx) error {
		u, err := tx.User(ctx)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrEmployeeNotFound
		}
		balance = u.VacationBalance

		if u.VacationDaysPerMonth <= 0 || u.JoinDate.IsZero() {
			return nil
		}

		today := truncateToDay(s.now())
		join := truncateToDay(u.JoinDate)

		lastAccrual, err := time.ParseInLocation(dateKeyLayout, u.LastAccrualDate, time.UTC)
		if err != nil {
			// Never accrued (or unparseable): start the day before the join
			// date so the join day itself earns.
			lastAccrual = join.AddDate(0, 0, -1)
		}
		if lastAccrual.Before(join.AddDate(0, 0, -1)) {
			lastAccrual = join.AddDate(0, 0, -1)
		}
		if !lastAccrual.Before(today) {
			return nil
		}

		days := int64(today.Sub(lastAccrual).Hours() / 24)
		earned := dailyAccrualRate(u.VacationDaysPerMonth).Mul(decimal.NewFromInt(days))

		newBalance, _ := decimal.NewFromFloat(u.VacationBalance).
			Add(earned).
			Round(2).
			Float64()

		if err := tx.Apply(ctx, newBalance, today.Format(dateKeyLayout)); err != nil {
			return err
		}
		balance = newBalance
		accruedDays = days
		return nil
	})
	if err != nil {
		return 0, err
	}

	if accruedDays > 0 {
		s.logger.WithFields(logrus.Fields{
			"userId":  userID,
			"days":    accruedDays,
			"balance": balance,
		}).Debug("vacation accrual applied")
	}

	return balance, nil
}

// dailyAccrualRate converts a monthly quota to a per-day rate over a 365-day
// year.
func dailyAccrualRate(monthlyQuota float64) decimal.Decimal {
	return decimal.NewFromFloat(monthlyQuota).
		Mul(decimal.NewFromInt(12)).
		Div(decimal.NewFromInt(365))
}
