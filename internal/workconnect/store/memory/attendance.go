package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/workconnect/server/internal/workconnect/store"
	"github.com/workconnect/server/internal/workconnect/types"
)

func errUserNotFound(userID string) error {
	return fmt.Errorf("user %s not found", userID)
}

func (s *Store) RunShiftTx(_ context.Context, userID string, fn func(tx store.ShiftTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &shiftTx{s: s, userID: userID}
	if err := fn(tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

// shiftTx stages writes and applies them only on success.
type shiftTx struct {
	s      *Store
	userID string

	stagedEntry  *types.LedgerEntry
	stagedMarker *types.ActiveShift
	clearMarker  bool
	stagedNotifs []stagedNotif
}

type stagedNotif struct {
	userID string
	n      types.Notification
}

func (t *shiftTx) ActiveShift(_ context.Context) (*types.ActiveShift, error) {
	if t.clearMarker {
		return nil, nil
	}
	if t.stagedMarker != nil {
		m := *t.stagedMarker
		return &m, nil
	}
	if m, ok := t.s.markers[t.userID]; ok {
		mc := m
		return &mc, nil
	}
	return nil, nil
}

func (t *shiftTx) LedgerEntry(_ context.Context, companyID, entryID string) (*types.LedgerEntry, error) {
	if t.stagedEntry != nil && t.stagedEntry.ID == entryID {
		e := copyEntry(*t.stagedEntry)
		return &e, nil
	}
	e, ok := t.s.entries[entryID]
	if !ok || e.CompanyID != companyID {
		return nil, nil
	}
	ec := copyEntry(e)
	return &ec, nil
}

func (t *shiftTx) PutLedgerEntry(_ context.Context, e types.LedgerEntry) error {
	ec := copyEntry(e)
	t.stagedEntry = &ec
	return nil
}

func (t *shiftTx) SetActiveShift(_ context.Context, m types.ActiveShift) error {
	mc := m
	mc.UserID = t.userID
	t.stagedMarker = &mc
	t.clearMarker = false
	return nil
}

func (t *shiftTx) ClearActiveShift(_ context.Context) error {
	t.stagedMarker = nil
	t.clearMarker = true
	return nil
}

func (t *shiftTx) AddNotification(_ context.Context, userID string, n types.Notification) error {
	t.stagedNotifs = append(t.stagedNotifs, stagedNotif{userID: userID, n: n})
	return nil
}

func (t *shiftTx) apply() {
	if t.stagedEntry != nil {
		t.s.entries[t.stagedEntry.ID] = *t.stagedEntry
	}
	if t.clearMarker {
		delete(t.s.markers, t.userID)
	} else if t.stagedMarker != nil {
		t.s.markers[t.userID] = *t.stagedMarker
	}
	for _, sn := range t.stagedNotifs {
		t.s.notifications[sn.userID] = append(t.s.notifications[sn.userID], sn.n)
	}
}

// ── queries ──────────────────────────────────────────────────────────────────

func (s *Store) ActiveShiftFor(_ context.Context, userID string) (*types.ActiveShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.markers[userID]; ok {
		mc := m
		return &mc, nil
	}
	return nil, nil
}

func (s *Store) Entry(_ context.Context, companyID, entryID string) (*types.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok || e.CompanyID != companyID {
		return nil, nil
	}
	ec := copyEntry(e)
	return &ec, nil
}

func (s *Store) EntriesForMonth(_ context.Context, companyID, userID, monthKey string) ([]types.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.LedgerEntry
	for _, e := range s.entries {
		if e.CompanyID == companyID && e.UserID == userID && strings.HasPrefix(e.DateKey, monthKey) {
			out = append(out, copyEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out, nil
}

func (s *Store) OpenShiftsOlderThan(_ context.Context, cutoff time.Time) ([]types.ActiveShift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.ActiveShift
	for _, m := range s.markers {
		if m.StartedAt.Before(cutoff) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) PruneExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, e := range s.entries {
		if e.ExpiresAt.Before(now) {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}
