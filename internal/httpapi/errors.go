package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloud-ru/loan-servicing-go/internal/calculations"
	"github.com/cloud-ru/loan-servicing-go/internal/commission"
	"github.com/cloud-ru/loan-servicing-go/internal/servicing"
	"github.com/cloud-ru/loan-servicing-go/internal/store"
	"github.com/cloud-ru/loan-servicing-go/internal/validators"
)

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Error: APIError{Code: code, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// порядок важен: ошибка разбора способа оборачивает и ErrValidation, и ErrUnsupportedMethod
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{validators.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{store.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{store.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
	{servicing.ErrAlreadyPaid, http.StatusConflict, "ALREADY_PAID"},
	{calculations.ErrUnsupportedMethod, http.StatusUnprocessableEntity, "UNSUPPORTED_METHOD"},
	{calculations.ErrInvalidTerms, http.StatusUnprocessableEntity, "INVALID_TERMS"},
	{commission.ErrInvalidRates, http.StatusUnprocessableEntity, "INVALID_RATES"},
	{commission.ErrNegativeManagerRate, http.StatusUnprocessableEntity, "NEGATIVE_MANAGER_RATE"},
	{commission.ErrInvalidInstallment, http.StatusUnprocessableEntity, "INVALID_INSTALLMENT"},
	{commission.ErrSharesExceedPayment, http.StatusUnprocessableEntity, "SHARES_EXCEED_PAYMENT"},
	{commission.ErrNonConvergentReconstruction, http.StatusUnprocessableEntity, "NON_CONVERGENT_RECONSTRUCTION"},
	{servicing.ErrNoBeneficiary, http.StatusUnprocessableEntity, "NO_BENEFICIARY"},
}

// classify сопоставляет ошибку инструмента HTTP-статусу и коду
func classify(err error) (int, string) {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.status, c.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL"
}
