package commission

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/cloud-ru/loan-servicing-go/internal/calculations"
	"github.com/cloud-ru/loan-servicing-go/pkg/utils"
)

var two = decimal.NewFromInt(2)

// ReconstructionConfig - параметры поиска исходной суммы кредита.
// Границы интервала подобраны эмпирически под типичные ставки.
type ReconstructionConfig struct {
	// BracketLow и BracketHigh - доли сохраненной суммы, в которых ищется исходная сумма
	BracketLow  decimal.Decimal
	BracketHigh decimal.Decimal
	// Tolerance - допустимая разница между расчетной и сохраненной суммой выплат
	Tolerance     decimal.Decimal
	MaxIterations int
	// MaterialityThreshold - если сохраненная сумма как исходная дает не больше
	// этой суммы процентов, поиск не нужен
	MaterialityThreshold decimal.Decimal
}

// DefaultReconstructionConfig возвращает параметры по умолчанию
func DefaultReconstructionConfig() ReconstructionConfig {
	return ReconstructionConfig{
		BracketLow:           decimal.RequireFromString("0.6"),
		BracketHigh:          decimal.RequireFromString("0.9"),
		Tolerance:            decimal.NewFromInt(1),
		MaxIterations:        40,
		MaterialityThreshold: decimal.NewFromInt(50),
	}
}

// Validate проверяет параметры поиска
func (c ReconstructionConfig) Validate() error {
	if !c.BracketLow.IsPositive() || !c.BracketLow.LessThan(c.BracketHigh) {
		return fmt.Errorf("%w: bracket [%s, %s] must satisfy 0 < low < high",
			ErrInvalidReconstructionConfig, c.BracketLow, c.BracketHigh)
	}
	if !c.Tolerance.IsPositive() {
		return fmt.Errorf("%w: tolerance must be positive", ErrInvalidReconstructionConfig)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be at least 1", ErrInvalidReconstructionConfig)
	}
	if c.MaterialityThreshold.IsNegative() {
		return fmt.Errorf("%w: materiality threshold must not be negative", ErrInvalidReconstructionConfig)
	}
	return nil
}

// Reconstruction - результат восстановления исходной суммы
type Reconstruction struct {
	StoredTotal decimal.Decimal `json:"stored_total"`
	Principal   decimal.Decimal `json:"principal"`
	// Searched == false означает, что сохраненная сумма и есть исходная
	Searched   bool `json:"searched"`
	Iterations int  `json:"iterations"`
	// TotalPayable - сумма выплат по графику для найденной суммы
	TotalPayable decimal.Decimal `json:"total_payable"`
}

// Reconstructor восстанавливает исходную сумму кредита по сохраненной общей сумме
type Reconstructor struct {
	cfg    ReconstructionConfig
	logger *slog.Logger
}

// NewReconstructor создает Reconstructor; nil logger отключает логирование
func NewReconstructor(cfg ReconstructionConfig, logger *slog.Logger) (*Reconstructor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Reconstructor{cfg: cfg, logger: orDiscard(logger)}, nil
}

// Reconstruct определяет исходную сумму кредита.
//
// Сохраненная сумма считается исходной, если проценты по ней несущественны
// или если она не может быть суммой выплат ни для одной исходной суммы из
// интервала. Иначе выполняется бинарный поиск по интервалу с калькулятором в
// роли оракула.
func (r *Reconstructor) Reconstruct(ctx context.Context, terms calculations.LoanTerms, stored decimal.Decimal) (Reconstruction, error) {
	if !stored.IsPositive() {
		return Reconstruction{}, fmt.Errorf("%w: stored total must be positive, got %s", calculations.ErrInvalidTerms, stored)
	}

	asPrincipal, err := totalPayable(terms, stored)
	if err != nil {
		return Reconstruction{}, err
	}
	principalAsIs := Reconstruction{StoredTotal: stored, Principal: stored, TotalPayable: asPrincipal}

	// проценты несущественны: обе трактовки сохраненной суммы совпадают
	if asPrincipal.Sub(stored).LessThanOrEqual(r.cfg.MaterialityThreshold) {
		r.logger.DebugContext(ctx, "stored total treated as principal: immaterial interest",
			slog.String("method", terms.Method.String()),
			slog.String("stored_total", stored.String()),
			slog.String("total_payable", asPrincipal.String()),
		)
		return principalAsIs, nil
	}

	lo := utils.Round2(stored.Mul(r.cfg.BracketLow))
	hi := utils.Round2(stored.Mul(r.cfg.BracketHigh))

	totalLo, err := totalPayable(terms, lo)
	if err != nil {
		return Reconstruction{}, err
	}
	totalHi, err := totalPayable(terms, hi)
	if err != nil {
		return Reconstruction{}, err
	}

	// ни одна сумма из интервала не дает такой суммы выплат
	if stored.LessThan(totalLo.Sub(r.cfg.Tolerance)) || stored.GreaterThan(totalHi.Add(r.cfg.Tolerance)) {
		r.logger.DebugContext(ctx, "stored total treated as principal: outside bracket",
			slog.String("method", terms.Method.String()),
			slog.String("stored_total", stored.String()),
			slog.String("bracket_total_low", totalLo.String()),
			slog.String("bracket_total_high", totalHi.String()),
		)
		return principalAsIs, nil
	}

	var mid, diff decimal.Decimal
	for i := 1; i <= r.cfg.MaxIterations; i++ {
		mid = utils.Round2(lo.Add(hi).Div(two))

		total, err := totalPayable(terms, mid)
		if err != nil {
			return Reconstruction{}, err
		}

		diff = total.Sub(stored)
		if diff.Abs().LessThan(r.cfg.Tolerance) {
			r.logger.DebugContext(ctx, "principal reconstructed",
				slog.String("method", terms.Method.String()),
				slog.String("stored_total", stored.String()),
				slog.String("principal", mid.String()),
				slog.Int("iterations", i),
			)
			return Reconstruction{
				StoredTotal:  stored,
				Principal:    mid,
				Searched:     true,
				Iterations:   i,
				TotalPayable: total,
			}, nil
		}

		if diff.IsPositive() {
			hi = mid
		} else {
			lo = mid
		}
	}

	nonConvergent := &NonConvergentReconstructionError{
		StoredTotal:  stored,
		Iterations:   r.cfg.MaxIterations,
		LastEstimate: mid,
		LastDiff:     diff,
	}
	r.logger.WarnContext(ctx, "principal reconstruction did not converge",
		slog.String("method", terms.Method.String()),
		slog.String("stored_total", stored.String()),
		slog.String("last_estimate", mid.String()),
		slog.String("last_diff", diff.String()),
		slog.Int("iterations", r.cfg.MaxIterations),
	)
	return Reconstruction{}, nonConvergent
}

func totalPayable(terms calculations.LoanTerms, principal decimal.Decimal) (decimal.Decimal, error) {
	terms.Principal = principal
	rows, err := calculations.Simulate(terms)
	if err != nil {
		return decimal.Zero, err
	}
	return calculations.TotalPayable(rows), nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
