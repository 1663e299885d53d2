// Package memory - хранилище в памяти (для тестов и локального запуска).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cloud-ru/loan-servicing-go/internal/store"
)

type installmentKey struct {
	LoanID string
	Number int
}

// Store хранит кредиты в памяти под sync.RWMutex
type Store struct {
	mu           sync.RWMutex
	loans        map[string]store.Loan
	installments map[installmentKey]store.Installment
	entries      map[string][]store.LedgerEntry
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		loans:        make(map[string]store.Loan),
		installments: make(map[installmentKey]store.Installment),
		entries:      make(map[string][]store.LedgerEntry),
	}
}

func (s *Store) CreateLoan(_ context.Context, loan store.Loan, installments []store.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loans[loan.ID]; ok {
		return fmt.Errorf("loan %s: %w", loan.ID, store.ErrAlreadyExists)
	}
	for _, inst := range installments {
		if inst.LoanID != loan.ID {
			return fmt.Errorf("installment %d belongs to loan %q, not %q", inst.Number, inst.LoanID, loan.ID)
		}
	}

	s.loans[loan.ID] = loan
	for _, inst := range installments {
		s.installments[installmentKey{LoanID: loan.ID, Number: inst.Number}] = inst
	}
	return nil
}

func (s *Store) GetLoan(_ context.Context, id string) (store.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, ok := s.loans[id]
	if !ok {
		return store.Loan{}, fmt.Errorf("loan %s: %w", id, store.ErrNotFound)
	}
	return loan, nil
}

func (s *Store) ListInstallments(_ context.Context, loanID string) ([]store.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, ok := s.loans[loanID]
	if !ok {
		return nil, fmt.Errorf("loan %s: %w", loanID, store.ErrNotFound)
	}

	result := make([]store.Installment, 0, loan.Terms.InstallmentCount)
	for k, inst := range s.installments {
		if k.LoanID == loanID {
			result = append(result, inst)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (s *Store) GetInstallment(_ context.Context, loanID string, number int) (store.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.installments[installmentKey{LoanID: loanID, Number: number}]
	if !ok {
		return store.Installment{}, fmt.Errorf("installment %d of loan %s: %w", number, loanID, store.ErrNotFound)
	}
	return inst, nil
}

// RecordPayment проверяет платеж и добавляет проводки под одной блокировкой
func (s *Store) RecordPayment(_ context.Context, payment store.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := installmentKey{LoanID: payment.LoanID, Number: payment.InstallmentNumber}
	inst, ok := s.installments[k]
	if !ok {
		return fmt.Errorf("installment %d of loan %s: %w", payment.InstallmentNumber, payment.LoanID, store.ErrNotFound)
	}
	if inst.Paid() {
		return fmt.Errorf("installment %d of loan %s: %w", payment.InstallmentNumber, payment.LoanID, store.ErrAlreadyPaid)
	}

	paidAt := payment.PaidAt
	amount := payment.Amount
	inst.PaidAt = &paidAt
	inst.PaidAmount = &amount
	s.installments[k] = inst

	s.entries[payment.LoanID] = append(s.entries[payment.LoanID], payment.Entries...)
	return nil
}

func (s *Store) ListEntries(_ context.Context, loanID string) ([]store.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.loans[loanID]; !ok {
		return nil, fmt.Errorf("loan %s: %w", loanID, store.ErrNotFound)
	}
	entries := s.entries[loanID]
	result := make([]store.LedgerEntry, len(entries))
	copy(result, entries)
	return result, nil
}
