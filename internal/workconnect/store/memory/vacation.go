package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/workconnect/server/internal/workconnect/store"
	"github.com/workconnect/server/internal/workconnect/types"
)

func (s *Store) CreateRequest(_ context.Context, req types.VacationRequest, managerNotif *types.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return fmt.Errorf("vacation request %s already exists", req.ID)
	}
	s.requests[req.ID] = req
	if managerNotif != nil {
		s.notifications[req.ManagerID] = append(s.notifications[req.ManagerID], *managerNotif)
	}
	return nil
}

func (s *Store) RunDecisionTx(_ context.Context, requestID string, fn func(tx store.DecisionTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &decisionTx{s: s, requestID: requestID}
	if err := fn(tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

type decisionTx struct {
	s         *Store
	requestID string

	stagedStatus   *types.VacationStatus
	stagedDecided  time.Time
	stagedBalances map[string]float64
	stagedNotifs   []stagedNotif
}

func (t *decisionTx) Request(_ context.Context) (*types.VacationRequest, error) {
	r, ok := t.s.requests[t.requestID]
	if !ok {
		return nil, nil
	}
	rc := r
	return &rc, nil
}

func (t *decisionTx) SetDecision(_ context.Context, status types.VacationStatus, decidedAt time.Time) error {
	t.stagedStatus = &status
	t.stagedDecided = decidedAt
	return nil
}

func (t *decisionTx) Balance(_ context.Context, employeeID string) (float64, bool, error) {
	if b, ok := t.stagedBalances[employeeID]; ok {
		return b, true, nil
	}
	u, ok := t.s.users[employeeID]
	if !ok {
		return 0, false, nil
	}
	return u.VacationBalance, true, nil
}

func (t *decisionTx) SetBalance(_ context.Context, employeeID string, balance float64) error {
	if t.stagedBalances == nil {
		t.stagedBalances = make(map[string]float64)
	}
	t.stagedBalances[employeeID] = balance
	return nil
}

func (t *decisionTx) AddNotification(_ context.Context, userID string, n types.Notification) error {
	t.stagedNotifs = append(t.stagedNotifs, stagedNotif{userID: userID, n: n})
	return nil
}

func (t *decisionTx) apply() {
	if t.stagedStatus != nil {
		r := t.s.requests[t.requestID]
		r.Status = *t.stagedStatus
		d := t.stagedDecided
		r.DecisionAt = &d
		t.s.requests[t.requestID] = r
	}
	for id, b := range t.stagedBalances {
		if u, ok := t.s.users[id]; ok {
			u.VacationBalance = b
			t.s.users[id] = u
		}
	}
	for _, sn := range t.stagedNotifs {
		t.s.notifications[sn.userID] = append(t.s.notifications[sn.userID], sn.n)
	}
}

func (s *Store) RequestsForEmployee(_ context.Context, employeeID string) ([]types.VacationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.VacationRequest
	for _, r := range s.requests {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) PendingForManager(_ context.Context, managerID string) ([]types.VacationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.VacationRequest
	for _, r := range s.requests {
		if r.ManagerID == managerID && r.Status == types.VacationPending {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
