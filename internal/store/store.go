// Package store описывает хранилище кредитов, графиков платежей и проводок.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/internal/calculations"
	"github.com/cloud-ru/loan-servicing-go/internal/commission"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrAlreadyPaid   = errors.New("installment already paid")
)

// Party - получатель проводки
type Party string

const (
	PartyIntermediator  Party = "intermediator"
	PartyCreditor       Party = "creditor"
	PartyManager        Party = "manager"
	PartyCreditorReturn Party = "creditor_return"
)

// Loan - сохраненный кредит.
//
// StoredTotalAmount хранится так, как кредит был создан: либо выданная сумма,
// либо общая сумма всех платежей. StoredAmountKind говорит, какая из двух;
// пустое значение у записей, где это неизвестно.
type Loan struct {
	ID                string                      `json:"id"`
	Terms             calculations.LoanTerms      `json:"terms"`
	StoredTotalAmount decimal.Decimal             `json:"stored_total_amount"`
	StoredAmountKind  commission.StoredAmountKind `json:"stored_amount_kind,omitempty"`
	Rates             commission.Rates            `json:"rates"`
	Parties           commission.Parties          `json:"parties"`
	StartDate         time.Time                   `json:"start_date"`
	CreatedAt         time.Time                   `json:"created_at"`
}

// CommissionLoan возвращает атрибуты кредита, нужные для распределения платежа
func (l Loan) CommissionLoan() commission.Loan {
	return commission.Loan{
		Terms:             l.Terms,
		StoredTotalAmount: l.StoredTotalAmount,
		StoredAmountKind:  l.StoredAmountKind,
		Rates:             l.Rates,
		Parties:           l.Parties,
	}
}

// Installment - строка графика платежей с датой и отметкой об оплате
type Installment struct {
	LoanID string `json:"loan_id"`
	calculations.InstallmentDetail
	DueDate    time.Time        `json:"due_date"`
	PaidAt     *time.Time       `json:"paid_at,omitempty"`
	PaidAmount *decimal.Decimal `json:"paid_amount,omitempty"`
}

// Paid сообщает, оплачен ли платеж
func (i Installment) Paid() bool {
	return i.PaidAt != nil
}

// LedgerEntry - проводка по оплаченному платежу. Только добавляется.
type LedgerEntry struct {
	ID                uuid.UUID       `json:"id"`
	LoanID            string          `json:"loan_id"`
	InstallmentNumber int             `json:"installment_number"`
	Party             Party           `json:"party"`
	AccountID         string          `json:"account_id"`
	Amount            decimal.Decimal `json:"amount"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Payment - оплата платежа вместе с проводками, записывается атомарно
type Payment struct {
	LoanID            string
	InstallmentNumber int
	Amount            decimal.Decimal
	PaidAt            time.Time
	Entries           []LedgerEntry
}

// Store - хранилище кредитов.
// Реализации должны быть безопасны для конкурентного использования.
type Store interface {
	// CreateLoan сохраняет кредит и его график одной операцией
	CreateLoan(ctx context.Context, loan Loan, installments []Installment) error
	GetLoan(ctx context.Context, id string) (Loan, error)
	// ListInstallments возвращает график по возрастанию номера
	ListInstallments(ctx context.Context, loanID string) ([]Installment, error)
	GetInstallment(ctx context.Context, loanID string, number int) (Installment, error)
	// RecordPayment отмечает платеж оплаченным и добавляет проводки атомарно.
	// Повторная оплата возвращает ErrAlreadyPaid и ничего не меняет.
	RecordPayment(ctx context.Context, payment Payment) error
	ListEntries(ctx context.Context, loanID string) ([]LedgerEntry, error)
}
