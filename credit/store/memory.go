// Package store provides credit.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/tradeflow/credit-engine/credit"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (tests/dev)
// =============================================================================

type Memory struct {
	mu            sync.RWMutex
	accounts      map[credit.VendorID]*credit.VendorCreditAccount
	cycles        map[credit.CycleID]*credit.CreditCycle
	notifications []credit.NotificationRecord
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[credit.VendorID]*credit.VendorCreditAccount),
		cycles:   make(map[credit.CycleID]*credit.CreditCycle),
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) SaveAccount(_ context.Context, acct *credit.VendorCreditAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveAccountLocked(acct)
}

func (m *Memory) saveAccountLocked(acct *credit.VendorCreditAccount) error {
	if existing, ok := m.accounts[acct.VendorID]; ok && existing.Version != acct.Version {
		return &credit.ConflictError{Kind: "account", ID: string(acct.VendorID), ExpectedVersion: acct.Version}
	}
	stored := acct.Clone()
	stored.Version++
	m.accounts[acct.VendorID] = stored
	acct.Version = stored.Version
	return nil
}

func (m *Memory) GetAccount(_ context.Context, vendorID credit.VendorID) (*credit.VendorCreditAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[vendorID]
	if !ok {
		return nil, credit.ErrNotFound
	}
	return acct.Clone(), nil
}

func (m *Memory) ListAccounts(_ context.Context) ([]*credit.VendorCreditAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*credit.VendorCreditAccount, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VendorID < out[j].VendorID })
	return out, nil
}

// =============================================================================
// CYCLES
// =============================================================================

func (m *Memory) SaveCycle(_ context.Context, cycle *credit.CreditCycle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCycleLocked(cycle)
}

func (m *Memory) saveCycleLocked(cycle *credit.CreditCycle) error {
	if existing, ok := m.cycles[cycle.ID]; ok && existing.Version != cycle.Version {
		return &credit.ConflictError{Kind: "cycle", ID: string(cycle.ID), ExpectedVersion: cycle.Version}
	}
	stored := cycle.Clone()
	stored.Version++
	m.cycles[cycle.ID] = stored
	cycle.Version = stored.Version
	return nil
}

func (m *Memory) GetCycle(_ context.Context, cycleID credit.CycleID) (*credit.CreditCycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cycle, ok := m.cycles[cycleID]
	if !ok {
		return nil, credit.ErrNotFound
	}
	return cycle.Clone(), nil
}

func (m *Memory) ListCyclesByVendor(_ context.Context, vendorID credit.VendorID) ([]*credit.CreditCycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*credit.CreditCycle
	for _, c := range m.cycles {
		if c.VendorID == vendorID {
			out = append(out, c.Clone())
		}
	}
	sortCycles(out)
	return out, nil
}

func (m *Memory) ListOpenCycles(_ context.Context) ([]*credit.CreditCycle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*credit.CreditCycle
	for _, c := range m.cycles {
		if c.IsOpen() {
			out = append(out, c.Clone())
		}
	}
	sortCycles(out)
	return out, nil
}

func sortCycles(cycles []*credit.CreditCycle) {
	sort.Slice(cycles, func(i, j int) bool {
		if cycles[i].CycleStartDate.Equal(cycles[j].CycleStartDate) {
			return cycles[i].ID < cycles[j].ID
		}
		return cycles[i].CycleStartDate.Before(cycles[j].CycleStartDate)
	})
}

// SaveCycleAndAccount persists both records under one lock. The version
// checks run before either write, so a conflict leaves both untouched.
func (m *Memory) SaveCycleAndAccount(_ context.Context, cycle *credit.CreditCycle, acct *credit.VendorCreditAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.cycles[cycle.ID]; ok && existing.Version != cycle.Version {
		return &credit.ConflictError{Kind: "cycle", ID: string(cycle.ID), ExpectedVersion: cycle.Version}
	}
	if existing, ok := m.accounts[acct.VendorID]; ok && existing.Version != acct.Version {
		return &credit.ConflictError{Kind: "account", ID: string(acct.VendorID), ExpectedVersion: acct.Version}
	}

	if err := m.saveCycleLocked(cycle); err != nil {
		return err
	}
	return m.saveAccountLocked(acct)
}

// =============================================================================
// NOTIFICATION LOG - Append-only
// =============================================================================

func (m *Memory) AppendNotification(_ context.Context, rec credit.NotificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, rec)
	return nil
}

func (m *Memory) WasNotified(_ context.Context, cycleID credit.CycleID, reminderType, sentOn string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.notifications {
		if n.CycleID == cycleID && n.Type == reminderType && n.SentOn == sentOn {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListNotificationsByVendor(_ context.Context, vendorID credit.VendorID) ([]credit.NotificationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []credit.NotificationRecord
	for _, n := range m.notifications {
		if n.VendorID == vendorID {
			out = append(out, n)
		}
	}
	return out, nil
}
