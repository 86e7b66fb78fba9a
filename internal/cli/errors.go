package cli

import (
	"errors"

	"moneymanager/internal/aggregator"
	"moneymanager/internal/auth"
	"moneymanager/internal/core"
	"moneymanager/internal/rates"
)

// ErrorMessage returns the plain text printed for a failed command.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, core.ErrAuthFailure) {
		return auth.Message(err)
	}

	var detail string
	switch {
	case errors.Is(err, core.ErrEmptyTitle):
		detail = "Title cannot be empty."
	case errors.Is(err, core.ErrInvalidAmount):
		detail = "Amount must be a positive number."
	case errors.Is(err, core.ErrInvalidDate):
		detail = "Date must be DD/MM/YYYY or YYYY-MM-DD."
	case errors.Is(err, core.ErrMissingID):
		detail = "An expense id is required."
	case errors.Is(err, aggregator.ErrNotFound):
		detail = "No expense with that id."
	case errors.Is(err, aggregator.ErrNoReceipt):
		detail = "That expense has no receipt."
	case errors.Is(err, rates.ErrInvalidCurrency):
		detail = "Currency must be a 3-letter code such as USD."
	case errors.Is(err, ErrRatesNotConfigured):
		detail = "Exchange rates are not configured. Set EXCHANGE_API_URL."
	}

	var prefix string
	switch core.FailureKind(err) {
	case core.ErrFetchFailure:
		prefix = "Could not load expenses."
	case core.ErrCreateFailure:
		prefix = "Could not add the expense."
	case core.ErrUpdateFailure:
		prefix = "Could not update the expense."
	case core.ErrDeleteFailure:
		prefix = "Could not delete the expense."
	case core.ErrUploadFailure:
		prefix = "Could not upload the receipt."
	case core.ErrRateFetchFailure:
		prefix = "Could not fetch exchange rates."
	}

	switch {
	case prefix != "" && detail != "":
		return prefix + " " + detail
	case prefix != "":
		return prefix + " " + err.Error()
	case detail != "":
		return detail
	default:
		return err.Error()
	}
}
