package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/workconnect/server/internal/workconnect/store"
	"github.com/workconnect/server/internal/workconnect/types"
)

// Store is an in-memory implementation of every store interface, used by
// tests and dev environments. One mutex guards all state; transaction scopes
// stage their writes and apply them only when the callback succeeds, so an
// aborted transaction leaves no partial effects, the same contract as the
// sqlite stores.
type Store struct {
	mu            sync.Mutex
	users         map[string]types.User
	markers       map[string]types.ActiveShift
	entries       map[string]types.LedgerEntry
	requests      map[string]types.VacationRequest
	notifications map[string][]types.Notification
	payslips      map[string]types.Payslip
}

func New() *Store {
	return &Store{
		users:         make(map[string]types.User),
		markers:       make(map[string]types.ActiveShift),
		entries:       make(map[string]types.LedgerEntry),
		requests:      make(map[string]types.VacationRequest),
		notifications: make(map[string][]types.Notification),
		payslips:      make(map[string]types.Payslip),
	}
}

// AddUser seeds a user. Test/dev helper.
func (s *Store) AddUser(u types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) Get(_ context.Context, userID string) (*types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	if m, ok := s.markers[userID]; ok {
		mc := m
		u.ActiveShift = &mc
	} else {
		u.ActiveShift = nil
	}
	return &u, nil
}

// ApplyAccrual sets the balance and lastAccrualDate directly, outside any
// transaction scope. Test/dev helper.
func (s *Store) ApplyAccrual(_ context.Context, userID string, newBalance float64, lastAccrualDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return errUserNotFound(userID)
	}
	u.VacationBalance = newBalance
	u.LastAccrualDate = lastAccrualDate
	s.users[userID] = u
	return nil
}

// RunAccrualTx holds the store mutex for the whole callback, so the profile
// fn reads cannot change before its staged write lands.
func (s *Store) RunAccrualTx(_ context.Context, userID string, fn func(tx store.AccrualTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &accrualTx{s: s, userID: userID}
	if err := fn(tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

type accrualTx struct {
	s      *Store
	userID string

	staged      bool
	balance     float64
	lastAccrual string
}

func (t *accrualTx) User(_ context.Context) (*types.User, error) {
	u, ok := t.s.users[t.userID]
	if !ok {
		return nil, nil
	}
	uc := u
	return &uc, nil
}

func (t *accrualTx) Apply(_ context.Context, newBalance float64, lastAccrualDate string) error {
	if _, ok := t.s.users[t.userID]; !ok {
		return errUserNotFound(t.userID)
	}
	t.staged = true
	t.balance = newBalance
	t.lastAccrual = lastAccrualDate
	return nil
}

func (t *accrualTx) apply() {
	if !t.staged {
		return
	}
	u := t.s.users[t.userID]
	u.VacationBalance = t.balance
	u.LastAccrualDate = t.lastAccrual
	t.s.users[t.userID] = u
}

func (s *Store) List(_ context.Context, userID string) ([]types.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.notifications[userID]
	out := make([]types.Notification, len(ns))
	copy(out, ns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Delete(_ context.Context, userID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.notifications[userID]
	for i, n := range ns {
		if n.ID == notificationID {
			s.notifications[userID] = append(ns[:i:i], ns[i+1:]...)
			break
		}
	}
	return nil
}

// Payslips returns the payslip view of the store. A separate type because
// PayslipStore and NotificationStore both name a List method.
func (s *Store) Payslips() *PayslipStore { return &PayslipStore{s: s} }

type PayslipStore struct {
	s *Store
}

func (ps *PayslipStore) Put(_ context.Context, p types.Payslip, notif *types.Notification) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	ps.s.payslips[p.UserID+"/"+p.PeriodKey] = p
	if notif != nil {
		ps.s.notifications[p.UserID] = append(ps.s.notifications[p.UserID], *notif)
	}
	return nil
}

func (ps *PayslipStore) List(_ context.Context, userID string) ([]types.Payslip, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	var out []types.Payslip
	for _, p := range ps.s.payslips {
		if p.UserID == userID {
			meta := p
			meta.PayloadB64 = ""
			out = append(out, meta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodKey > out[j].PeriodKey })
	return out, nil
}

func (ps *PayslipStore) Get(_ context.Context, userID, periodKey string) (*types.Payslip, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	p, ok := ps.s.payslips[userID+"/"+periodKey]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func copyEntry(e types.LedgerEntry) types.LedgerEntry {
	out := e
	out.Periods = make([]types.Period, len(e.Periods))
	for i, p := range e.Periods {
		cp := p
		if p.EndAt != nil {
			t := *p.EndAt
			cp.EndAt = &t
		}
		if p.StartLocation != nil {
			l := *p.StartLocation
			cp.StartLocation = &l
		}
		if p.EndLocation != nil {
			l := *p.EndLocation
			cp.EndLocation = &l
		}
		out.Periods[i] = cp
	}
	return out
}
