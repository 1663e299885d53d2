package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/internal/calculations"
	"github.com/cloud-ru/loan-servicing-go/internal/commission"
	"github.com/cloud-ru/loan-servicing-go/internal/store"
)

const uniqueViolation = "23505"

// Store реализует store.Store поверх pgxpool
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type scannable interface {
	Scan(dest ...any) error
}

// CreateLoan сохраняет кредит и график в одной транзакции
func (s *Store) CreateLoan(ctx context.Context, loan store.Loan, installments []store.Installment) error {
	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO loans (
				id, method, principal, installment_count, periodic_rate,
				stored_total_amount, stored_amount_kind, total_rate, intermediator_rate, creditor_rate,
				intermediator_id, creditor_id, manager_id, start_date, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
			loan.ID, loan.Terms.Method.String(), loan.Terms.Principal, loan.Terms.InstallmentCount, loan.Terms.PeriodicRate,
			loan.StoredTotalAmount, string(loan.StoredAmountKind), loan.Rates.Total, loan.Rates.Intermediator, loan.Rates.Creditor,
			loan.Parties.IntermediatorID, loan.Parties.CreditorID, loan.Parties.ManagerID, loan.StartDate, loan.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("loan %s: %w", loan.ID, store.ErrAlreadyExists)
			}
			return fmt.Errorf("save loan: %w", err)
		}

		for _, inst := range installments {
			if inst.LoanID != loan.ID {
				return fmt.Errorf("installment %d belongs to loan %q, not %q", inst.Number, inst.LoanID, loan.ID)
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO installments (
					loan_id, number, principal_component, interest_component,
					total_amount, remaining_balance, due_date
				) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				loan.ID, inst.Number, inst.PrincipalComponent, inst.InterestComponent,
				inst.TotalAmount, inst.RemainingBalance, inst.DueDate,
			)
			if err != nil {
				return fmt.Errorf("save installment %d: %w", inst.Number, err)
			}
		}
		return nil
	})
}

func (s *Store) GetLoan(ctx context.Context, id string) (store.Loan, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, method, principal, installment_count, periodic_rate,
		       stored_total_amount, stored_amount_kind, total_rate, intermediator_rate, creditor_rate,
		       intermediator_id, creditor_id, manager_id, start_date, created_at
		FROM loans
		WHERE id = $1`, id)

	loan, err := scanLoan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Loan{}, fmt.Errorf("loan %s: %w", id, store.ErrNotFound)
	}
	return loan, err
}

func scanLoan(s scannable) (store.Loan, error) {
	var (
		loan   store.Loan
		method string
		kind   string
	)
	err := s.Scan(
		&loan.ID, &method, &loan.Terms.Principal, &loan.Terms.InstallmentCount, &loan.Terms.PeriodicRate,
		&loan.StoredTotalAmount, &kind, &loan.Rates.Total, &loan.Rates.Intermediator, &loan.Rates.Creditor,
		&loan.Parties.IntermediatorID, &loan.Parties.CreditorID, &loan.Parties.ManagerID,
		&loan.StartDate, &loan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Loan{}, err
		}
		return store.Loan{}, fmt.Errorf("scan loan: %w", err)
	}
	loan.Terms.Method = calculations.Method(method)
	loan.StoredAmountKind = commission.StoredAmountKind(kind)
	return loan, nil
}

func (s *Store) ListInstallments(ctx context.Context, loanID string) ([]store.Installment, error) {
	if err := s.ensureLoan(ctx, loanID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT loan_id, number, principal_component, interest_component,
		       total_amount, remaining_balance, due_date, paid_at, paid_amount
		FROM installments
		WHERE loan_id = $1
		ORDER BY number`, loanID)
	if err != nil {
		return nil, fmt.Errorf("query installments: %w", err)
	}
	defer rows.Close()

	var result []store.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, inst)
	}
	return result, rows.Err()
}

func (s *Store) GetInstallment(ctx context.Context, loanID string, number int) (store.Installment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT loan_id, number, principal_component, interest_component,
		       total_amount, remaining_balance, due_date, paid_at, paid_amount
		FROM installments
		WHERE loan_id = $1 AND number = $2`, loanID, number)

	inst, err := scanInstallment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Installment{}, fmt.Errorf("installment %d of loan %s: %w", number, loanID, store.ErrNotFound)
	}
	return inst, err
}

func scanInstallment(s scannable) (store.Installment, error) {
	var (
		inst       store.Installment
		paidAt     *time.Time
		paidAmount decimal.NullDecimal
	)
	err := s.Scan(
		&inst.LoanID, &inst.Number, &inst.PrincipalComponent, &inst.InterestComponent,
		&inst.TotalAmount, &inst.RemainingBalance, &inst.DueDate, &paidAt, &paidAmount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Installment{}, err
		}
		return store.Installment{}, fmt.Errorf("scan installment: %w", err)
	}
	inst.PaidAt = paidAt
	if paidAmount.Valid {
		inst.PaidAmount = &paidAmount.Decimal
	}
	return inst, nil
}

// RecordPayment отмечает платеж оплаченным и пишет проводки в одной транзакции
func (s *Store) RecordPayment(ctx context.Context, payment store.Payment) error {
	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE installments
			SET paid_at = $3, paid_amount = $4
			WHERE loan_id = $1 AND number = $2 AND paid_at IS NULL`,
			payment.LoanID, payment.InstallmentNumber, payment.PaidAt, payment.Amount,
		)
		if err != nil {
			return fmt.Errorf("mark installment paid: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM installments WHERE loan_id = $1 AND number = $2)`,
				payment.LoanID, payment.InstallmentNumber,
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check installment: %w", err)
			}
			if exists {
				return fmt.Errorf("installment %d of loan %s: %w", payment.InstallmentNumber, payment.LoanID, store.ErrAlreadyPaid)
			}
			return fmt.Errorf("installment %d of loan %s: %w", payment.InstallmentNumber, payment.LoanID, store.ErrNotFound)
		}

		for _, e := range payment.Entries {
			_, err := tx.Exec(ctx, `
				INSERT INTO ledger_entries (id, loan_id, installment_number, party, account_id, amount, created_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				e.ID, e.LoanID, e.InstallmentNumber, string(e.Party), e.AccountID, e.Amount, e.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("save ledger entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) ListEntries(ctx context.Context, loanID string) ([]store.LedgerEntry, error) {
	if err := s.ensureLoan(ctx, loanID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, loan_id, installment_number, party, account_id, amount, created_at
		FROM ledger_entries
		WHERE loan_id = $1
		ORDER BY installment_number, created_at`, loanID)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var result []store.LedgerEntry
	for rows.Next() {
		var (
			e     store.LedgerEntry
			party string
		)
		if err := rows.Scan(&e.ID, &e.LoanID, &e.InstallmentNumber, &party, &e.AccountID, &e.Amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Party = store.Party(party)
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) ensureLoan(ctx context.Context, loanID string) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM loans WHERE id = $1)`, loanID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check loan: %w", err)
	}
	if !exists {
		return fmt.Errorf("loan %s: %w", loanID, store.ErrNotFound)
	}
	return nil
}
