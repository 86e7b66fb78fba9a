package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Expense is a normalised expense record as held by the aggregator.
	// Month is always MonthLabel(Date).
	Expense struct {
		ID       string          `json:"id" yaml:"id"`
		Title    string          `json:"title" yaml:"title"`
		Amount   decimal.Decimal `json:"amount" yaml:"amount"`
		Date     Date            `json:"date" yaml:"date"`
		Month    string          `json:"month" yaml:"month"`
		ImageURL string          `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	}

	// RawExpense is a record as returned by the remote store: the date is
	// still a wire string and there is no month.
	RawExpense struct {
		ID       string
		Title    string
		Amount   decimal.Decimal
		Date     string
		ImageURL string
	}

	// ReceiptFile is a receipt image chosen by the user for upload.
	ReceiptFile struct {
		Name        string
		ContentType string
		Data        []byte
	}

	// Draft carries user input for a create or an edit. ID is empty for a
	// record that was never saved.
	Draft struct {
		ID       string
		Title    string
		Amount   decimal.Decimal
		Date     string
		ImageURL string
		// ClearImage drops the existing image reference on update.
		ClearImage bool
	}
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMissingID     = errors.New("missing expense id")
)

const maxTitleLength = 200

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > maxTitleLength {
		return errors.New("title too long (max 200 characters)")
	}
	if e.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Normalize turns a remote record into an Expense, deriving Date and Month.
func Normalize(raw RawExpense) (Expense, error) {
	d, err := ParseWireDate(raw.Date)
	if err != nil {
		return Expense{}, err
	}
	return Expense{
		ID:       raw.ID,
		Title:    raw.Title,
		Amount:   raw.Amount,
		Date:     d,
		Month:    MonthLabel(d),
		ImageURL: strings.TrimSpace(raw.ImageURL),
	}, nil
}

// Build validates the draft and returns the record it describes.
func (d Draft) Build() (Expense, error) {
	date, err := ParseWireDate(d.Date)
	if err != nil {
		return Expense{}, err
	}
	e := Expense{
		ID:       d.ID,
		Title:    strings.TrimSpace(d.Title),
		Amount:   d.Amount,
		Date:     date,
		Month:    MonthLabel(date),
		ImageURL: strings.TrimSpace(d.ImageURL),
	}
	if d.ClearImage {
		e.ImageURL = ""
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

// DraftOf returns a draft that reproduces e, for editing.
func DraftOf(e Expense) Draft {
	return Draft{
		ID:       e.ID,
		Title:    e.Title,
		Amount:   e.Amount,
		Date:     e.Date.Display(),
		ImageURL: e.ImageURL,
	}
}
