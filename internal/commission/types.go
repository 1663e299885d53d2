package commission

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/internal/calculations"
	"github.com/cloud-ru/loan-servicing-go/pkg/utils"
)

// Rates - ставки комиссий в процентах (5 = 5%)
type Rates struct {
	// Total - общая ставка кредита, из которой делятся комиссии
	Total         decimal.Decimal `json:"total"`
	Intermediator decimal.Decimal `json:"intermediator"`
	Creditor      decimal.Decimal `json:"creditor"`
}

// Manager возвращает остаточную ставку менеджера: Total − Intermediator − Creditor
func (r Rates) Manager() decimal.Decimal {
	return r.Total.Sub(r.Intermediator).Sub(r.Creditor)
}

// Parties - участники кредита; пустой идентификатор означает отсутствие участника
type Parties struct {
	IntermediatorID string `json:"intermediator_id,omitempty"`
	CreditorID      string `json:"creditor_id,omitempty"`
	ManagerID       string `json:"manager_id,omitempty"`
}

func (p Parties) HasIntermediator() bool { return p.IntermediatorID != "" }
func (p Parties) HasCreditor() bool      { return p.CreditorID != "" }
func (p Parties) HasManager() bool       { return p.ManagerID != "" }

// StoredAmountKind - что именно лежит в StoredTotalAmount
type StoredAmountKind string

const (
	// StoredAmountUnknown - записи без отметки; трактовка определяется поиском
	StoredAmountUnknown      StoredAmountKind = ""
	StoredAmountPrincipal    StoredAmountKind = "principal"
	StoredAmountTotalPayable StoredAmountKind = "total_payable"
)

// ParseStoredAmountKind разбирает вид сохраненной суммы; пустая строка дает StoredAmountUnknown
func ParseStoredAmountKind(s string) (StoredAmountKind, error) {
	switch kind := StoredAmountKind(s); kind {
	case StoredAmountUnknown, StoredAmountPrincipal, StoredAmountTotalPayable:
		return kind, nil
	default:
		return StoredAmountUnknown, fmt.Errorf("%w: unknown stored amount kind %q", ErrInvalidStoredAmountKind, s)
	}
}

// Loan - сохраненные атрибуты кредита, нужные для распределения платежа.
//
// StoredTotalAmount может содержать как выданную сумму, так и общую сумму
// всех платежей, в зависимости от того, как кредит был создан. Если
// StoredAmountKind равен StoredAmountPrincipal, сумма берется как исходная.
// Иначе для амортизируемых способов исходная сумма восстанавливается по
// ней; Terms.Principal при этом не используется.
type Loan struct {
	Terms             calculations.LoanTerms `json:"terms"`
	StoredTotalAmount decimal.Decimal        `json:"stored_total_amount"`
	StoredAmountKind  StoredAmountKind       `json:"stored_amount_kind,omitempty"`
	Rates             Rates                  `json:"rates"`
	Parties           Parties                `json:"parties"`
}

// Basis - от какой величины считались комиссии
type Basis string

const (
	BasisInstallmentValue   Basis = "installment_value"
	BasisOriginalPrincipal  Basis = "original_principal"
	BasisOutstandingBalance Basis = "outstanding_balance"
)

// AllocationResult - распределение одного оплаченного платежа.
//
// Для простых процентов четыре доли в сумме равны уплаченной сумме.
// Для амортизируемых способов комиссии считаются от основного долга, а
// CreditorReturn - это остаток уплаченной суммы после вычета трех комиссий.
type AllocationResult struct {
	InstallmentNumber  int             `json:"installment_number"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	IntermediatorShare decimal.Decimal `json:"intermediator_share"`
	CreditorShare      decimal.Decimal `json:"creditor_share"`
	ManagerShare       decimal.Decimal `json:"manager_share"`
	CreditorReturn     decimal.Decimal `json:"creditor_return"`
	CalculationBase    decimal.Decimal `json:"calculation_base"`
	Basis              Basis           `json:"basis"`
	BasisLabel         string          `json:"basis_label"`
	ManagerRate        decimal.Decimal `json:"manager_rate"`
	// Reconstruction заполняется только для амортизируемых способов
	Reconstruction *Reconstruction `json:"reconstruction,omitempty"`
}

// CommissionTotal возвращает сумму трех комиссий
func (r AllocationResult) CommissionTotal() decimal.Decimal {
	return utils.SumDecimals(r.IntermediatorShare, r.CreditorShare, r.ManagerShare)
}
