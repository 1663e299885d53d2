package tools

import (
	"sort"

	"go.opentelemetry.io/otel/trace"

	"github.com/cloud-ru/loan-servicing-go/internal/commission"
	"github.com/cloud-ru/loan-servicing-go/internal/config"
	"github.com/cloud-ru/loan-servicing-go/internal/servicing"
)

// Tool - описание инструмента
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []string    `json:"params"`
	Handler     ToolHandler `json:"-"`
}

// Registry - инструменты по имени
type Registry struct {
	tools map[string]Tool
}

// NewRegistry регистрирует все инструменты сервиса
func NewRegistry(cfg *config.Config, tracer trace.Tracer, distributor *commission.Distributor, svc *servicing.Service) *Registry {
	r := &Registry{tools: make(map[string]Tool)}

	r.Register(Tool{
		Name:        "simulate_schedule",
		Description: "График платежей по способу амортизации",
		Params:      []string{"method", "principal", "periodic_rate_percent", "installments"},
		Handler:     SimulateScheduleHandler(cfg, tracer),
	})
	r.Register(Tool{
		Name:        "compare_amortization_methods",
		Description: "Сравнение переплаты по всем способам амортизации",
		Params:      []string{"principal", "periodic_rate_percent", "installments", "include_schedules"},
		Handler:     CompareMethodsHandler(cfg, tracer),
	})
	r.Register(Tool{
		Name:        "allocate_commission",
		Description: "Распределение оплаченного платежа между посредником, кредитором и менеджером",
		Params: []string{
			"method", "stored_total_amount", "periodic_rate_percent", "installments",
			"total_rate", "intermediator_rate", "creditor_rate",
			"intermediator_id", "creditor_id", "manager_id",
			"installment_number", "paid_amount", "stored_amount_kind",
		},
		Handler: AllocateCommissionHandler(cfg, tracer, distributor),
	})
	r.Register(Tool{
		Name:        "create_loan",
		Description: "Выдача кредита с сохранением графика платежей",
		Params: []string{
			"loan_id", "method", "principal", "periodic_rate_percent", "installments",
			"total_rate", "intermediator_rate", "creditor_rate",
			"intermediator_id", "creditor_id", "manager_id",
			"start_date", "store_total_payable",
		},
		Handler: CreateLoanHandler(cfg, tracer, svc),
	})
	r.Register(Tool{
		Name:        "record_payment",
		Description: "Оплата платежа с проводками по участникам",
		Params:      []string{"loan_id", "installment_number", "paid_amount", "paid_at"},
		Handler:     RecordPaymentHandler(cfg, tracer, svc),
	})
	r.Register(Tool{
		Name:        "loan_schedule",
		Description: "Сохраненный кредит, его график и проводки",
		Params:      []string{"loan_id"},
		Handler:     LoanScheduleHandler(tracer, svc),
	})

	return r
}

// Register добавляет инструмент, заменяя одноименный
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name] = tool
}

// Get возвращает обработчик по имени
func (r *Registry) Get(name string) (ToolHandler, bool) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return tool.Handler, true
}

// List возвращает инструменты в алфавитном порядке
func (r *Registry) List() []Tool {
	list := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		list = append(list, tool)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
