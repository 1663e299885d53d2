package tools

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloud-ru/loan-servicing-go/internal/calculations"
	"github.com/cloud-ru/loan-servicing-go/internal/commission"
	"github.com/cloud-ru/loan-servicing-go/internal/config"
	"github.com/cloud-ru/loan-servicing-go/internal/metrics"
	"github.com/cloud-ru/loan-servicing-go/internal/servicing"
	"github.com/cloud-ru/loan-servicing-go/internal/store"
	"github.com/cloud-ru/loan-servicing-go/internal/validators"
)

// ToolHandler представляет обработчик инструмента MCP
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// toolCall - span и метрики одного вызова инструмента
type toolCall struct {
	name string
	span trace.Span
}

func startCall(ctx context.Context, tracer trace.Tracer, name string) (context.Context, *toolCall) {
	ctx, span := tracer.Start(ctx, name)
	metrics.APICalls.WithLabelValues("mcp", name, "started").Inc()
	return ctx, &toolCall{name: name, span: span}
}

func (c *toolCall) invalid(err error) error {
	c.span.SetAttributes(attribute.String("error", "validation_error"))
	c.span.SetStatus(codes.Error, err.Error())
	metrics.ToolCalls.WithLabelValues(c.name, "validation_error").Inc()
	metrics.CalculationErrors.WithLabelValues(c.name, "validation").Inc()
	metrics.APICalls.WithLabelValues("mcp", c.name, "error").Inc()
	return fmt.Errorf("неверные параметры: %w", err)
}

func (c *toolCall) failed(err error) error {
	c.span.SetAttributes(attribute.String("error", "calculation_error"))
	c.span.SetStatus(codes.Error, err.Error())
	metrics.ToolCalls.WithLabelValues(c.name, "error").Inc()
	metrics.CalculationErrors.WithLabelValues(c.name, "calculation").Inc()
	metrics.APICalls.WithLabelValues("mcp", c.name, "error").Inc()
	return fmt.Errorf("ошибка при выполнении расчета: %w", err)
}

// serviceError разделяет отказ по входным данным и ошибку расчета
func (c *toolCall) serviceError(err error) error {
	if errors.Is(err, validators.ErrValidation) {
		return c.invalid(err)
	}
	return c.failed(err)
}

func (c *toolCall) succeeded(attrs ...attribute.KeyValue) {
	c.span.SetAttributes(append(attrs, attribute.Bool("success", true))...)
	metrics.ToolCalls.WithLabelValues(c.name, "success").Inc()
	metrics.APICalls.WithLabelValues("mcp", c.name, "success").Inc()
}

func (c *toolCall) end() {
	c.span.End()
}

func termsAttributes(terms calculations.LoanTerms) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("method", terms.Method.String()),
		attribute.String("principal", terms.Principal.String()),
		attribute.String("periodic_rate", terms.PeriodicRate.String()),
		attribute.Int("installments", terms.InstallmentCount),
	}
}

func checkTerms(cfg *config.Config, principalName string, terms calculations.LoanTerms) error {
	if err := validators.CheckAmount(cfg, principalName, terms.Principal); err != nil {
		return err
	}
	if err := validators.CheckRatePercent(cfg, "periodic_rate_percent", terms.PeriodicRate.Mul(hundred)); err != nil {
		return err
	}
	return validators.CheckInstallments(cfg, terms.InstallmentCount)
}

func checkRates(cfg *config.Config, rates commission.Rates) error {
	if err := validators.CheckRatePercent(cfg, "total_rate", rates.Total); err != nil {
		return err
	}
	if err := validators.CheckRatePercent(cfg, "intermediator_rate", rates.Intermediator); err != nil {
		return err
	}
	return validators.CheckRatePercent(cfg, "creditor_rate", rates.Creditor)
}

// SimulateScheduleHandler рассчитывает график платежей выбранным способом
func SimulateScheduleHandler(cfg *config.Config, tracer trace.Tracer) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		ctx, call := startCall(ctx, tracer, "simulate_schedule")
		defer call.end()

		terms, err := termsParams(params, "principal")
		if err != nil {
			return nil, call.invalid(err)
		}
		call.span.SetAttributes(termsAttributes(terms)...)

		if err := checkTerms(cfg, "principal", terms); err != nil {
			return nil, call.invalid(err)
		}

		result, err := calculations.SimulateSchedule(terms)
		if err != nil {
			return nil, call.failed(err)
		}

		call.succeeded(
			attribute.String("first_payment", result.Summary.FirstPayment.String()),
			attribute.String("total_paid", result.Summary.TotalPaid.String()),
		)
		return result, nil
	}
}

// CompareMethodsHandler сравнивает все способы амортизации для одних условий
func CompareMethodsHandler(cfg *config.Config, tracer trace.Tracer) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		ctx, call := startCall(ctx, tracer, "compare_amortization_methods")
		defer call.end()

		principal, err := decimalParam(params, "principal")
		if err != nil {
			return nil, call.invalid(err)
		}
		ratePercent, err := decimalParam(params, "periodic_rate_percent")
		if err != nil {
			return nil, call.invalid(err)
		}
		installments, err := intParam(params, "installments")
		if err != nil {
			return nil, call.invalid(err)
		}
		withSchedules, err := boolParam(params, "include_schedules")
		if err != nil {
			return nil, call.invalid(err)
		}

		call.span.SetAttributes(
			attribute.String("principal", principal.String()),
			attribute.String("periodic_rate_percent", ratePercent.String()),
			attribute.Int("installments", installments),
		)

		if err := validators.CheckPrincipal(cfg, principal); err != nil {
			return nil, call.invalid(err)
		}
		if err := validators.CheckRatePercent(cfg, "periodic_rate_percent", ratePercent); err != nil {
			return nil, call.invalid(err)
		}
		if err := validators.CheckInstallments(cfg, installments); err != nil {
			return nil, call.invalid(err)
		}

		result, err := calculations.CompareMethods(principal, ratePercent.Div(hundred), installments, withSchedules)
		if err != nil {
			return nil, call.failed(err)
		}

		call.succeeded(
			attribute.String("cheapest", result.Cheapest.String()),
			attribute.String("most_expensive", result.MostExpensive.String()),
		)
		return result, nil
	}
}

// AllocateCommissionHandler распределяет оплату платежа без сохранения
func AllocateCommissionHandler(cfg *config.Config, tracer trace.Tracer, distributor *commission.Distributor) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		ctx, call := startCall(ctx, tracer, "allocate_commission")
		defer call.end()

		terms, err := termsParams(params, "stored_total_amount")
		if err != nil {
			return nil, call.invalid(err)
		}
		rates, err := ratesParams(params)
		if err != nil {
			return nil, call.invalid(err)
		}
		parties, err := partiesParams(params)
		if err != nil {
			return nil, call.invalid(err)
		}
		number, err := intParam(params, "installment_number")
		if err != nil {
			return nil, call.invalid(err)
		}
		paid, err := decimalParam(params, "paid_amount")
		if err != nil {
			return nil, call.invalid(err)
		}
		kind, err := storedAmountKindParam(params)
		if err != nil {
			return nil, call.invalid(err)
		}

		call.span.SetAttributes(termsAttributes(terms)...)
		call.span.SetAttributes(
			attribute.Int("installment_number", number),
			attribute.String("paid_amount", paid.String()),
		)

		if err := checkTerms(cfg, "stored_total_amount", terms); err != nil {
			return nil, call.invalid(err)
		}
		if err := checkRates(cfg, rates); err != nil {
			return nil, call.invalid(err)
		}
		if err := validators.CheckAmount(cfg, "paid_amount", paid); err != nil {
			return nil, call.invalid(err)
		}

		loan := commission.Loan{
			Terms:             terms,
			StoredTotalAmount: terms.Principal,
			StoredAmountKind:  kind,
			Rates:             rates,
			Parties:           parties,
		}
		result, err := distributor.Allocate(ctx, loan, number, paid)
		if err != nil {
			return nil, call.failed(err)
		}

		call.succeeded(
			attribute.String("basis", string(result.Basis)),
			attribute.String("calculation_base", result.CalculationBase.String()),
		)
		return result, nil
	}
}

// CreateLoanHandler выдает кредит и сохраняет график платежей
func CreateLoanHandler(cfg *config.Config, tracer trace.Tracer, svc *servicing.Service) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		ctx, call := startCall(ctx, tracer, "create_loan")
		defer call.end()

		terms, err := termsParams(params, "principal")
		if err != nil {
			return nil, call.invalid(err)
		}
		rates, err := ratesParams(params)
		if err != nil {
			return nil, call.invalid(err)
		}
		parties, err := partiesParams(params)
		if err != nil {
			return nil, call.invalid(err)
		}
		id, err := optionalStringParam(params, "loan_id")
		if err != nil {
			return nil, call.invalid(err)
		}
		start, err := timeParam(params, "start_date")
		if err != nil {
			return nil, call.invalid(err)
		}
		storeTotal, err := boolParam(params, "store_total_payable")
		if err != nil {
			return nil, call.invalid(err)
		}

		call.span.SetAttributes(termsAttributes(terms)...)
		call.span.SetAttributes(attribute.Bool("store_total_payable", storeTotal))

		if err := checkTerms(cfg, "principal", terms); err != nil {
			return nil, call.invalid(err)
		}
		if err := checkRates(cfg, rates); err != nil {
			return nil, call.invalid(err)
		}

		loan, installments, err := svc.CreateLoan(ctx, servicing.NewLoan{
			ID:                id,
			Terms:             terms,
			Rates:             rates,
			Parties:           parties,
			StartDate:         start,
			StoreTotalPayable: storeTotal,
		})
		if err != nil {
			return nil, call.serviceError(err)
		}

		call.succeeded(attribute.String("loan_id", loan.ID))
		return LoanView{Loan: loan, Installments: installments}, nil
	}
}

// RecordPaymentHandler принимает оплату платежа и распределяет ее по участникам
func RecordPaymentHandler(cfg *config.Config, tracer trace.Tracer, svc *servicing.Service) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		ctx, call := startCall(ctx, tracer, "record_payment")
		defer call.end()

		loanID, err := stringParam(params, "loan_id")
		if err != nil {
			return nil, call.invalid(err)
		}
		number, err := intParam(params, "installment_number")
		if err != nil {
			return nil, call.invalid(err)
		}
		paid, err := decimalParam(params, "paid_amount")
		if err != nil {
			return nil, call.invalid(err)
		}
		paidAt, err := timeParam(params, "paid_at")
		if err != nil {
			return nil, call.invalid(err)
		}

		call.span.SetAttributes(
			attribute.String("loan_id", loanID),
			attribute.Int("installment_number", number),
			attribute.String("paid_amount", paid.String()),
		)

		if err := validators.CheckAmount(cfg, "paid_amount", paid); err != nil {
			return nil, call.invalid(err)
		}

		result, err := svc.RecordPayment(ctx, loanID, number, paid, paidAt)
		if err != nil {
			return nil, call.serviceError(err)
		}

		call.succeeded(
			attribute.String("basis", string(result.Allocation.Basis)),
			attribute.Int("entries", len(result.Entries)),
		)
		return result, nil
	}
}

// LoanView - кредит с графиком и проводками
type LoanView struct {
	Loan         store.Loan          `json:"loan"`
	Installments []store.Installment `json:"installments"`
	Entries      []store.LedgerEntry `json:"entries,omitempty"`
}

// LoanScheduleHandler возвращает сохраненный кредит, его график и проводки
func LoanScheduleHandler(tracer trace.Tracer, svc *servicing.Service) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		ctx, call := startCall(ctx, tracer, "loan_schedule")
		defer call.end()

		loanID, err := stringParam(params, "loan_id")
		if err != nil {
			return nil, call.invalid(err)
		}
		call.span.SetAttributes(attribute.String("loan_id", loanID))

		loan, err := svc.Loan(ctx, loanID)
		if err != nil {
			return nil, call.failed(err)
		}
		installments, err := svc.Schedule(ctx, loanID)
		if err != nil {
			return nil, call.failed(err)
		}
		entries, err := svc.Entries(ctx, loanID)
		if err != nil {
			return nil, call.failed(err)
		}

		call.succeeded(attribute.Int("entries", len(entries)))
		return LoanView{Loan: loan, Installments: installments, Entries: entries}, nil
	}
}
