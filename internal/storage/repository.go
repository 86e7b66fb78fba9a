package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"moneymanager/internal/core"
	applog "moneymanager/internal/log"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no row matches the given id.
var ErrNotFound = errors.New("expense not found")

// SQLiteRepository is the local expense store used when DATA_BACKEND=sqlite.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *applog.Logger
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("SQLite migrations applied",
		applog.FieldOperation, applog.OpMigrate,
		"db_path", dbPath,
		"schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// List implements ports.ExpenseStore. Dates are returned in ISO form.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.RawExpense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.RawExpense, 0, len(rows))
	for _, row := range rows {
		raw, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// Create implements ports.ExpenseStore.
func (r *SQLiteRepository) Create(ctx context.Context, e core.Expense) (string, error) {
	id, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		Title:    e.Title,
		Amount:   e.Amount.String(),
		Date:     e.Date.ISO(),
		Month:    core.MonthLabel(e.Date),
		ImageUrl: e.ImageURL,
	})
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}

	r.logger.InfoContext(ctx, "Expense saved to SQLite",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithExpense(strconv.FormatInt(id, 10), e.Title, e.Amount.String(), core.MonthLabel(e.Date)).
			ToSlice()...)

	return strconv.FormatInt(id, 10), nil
}

// Replace implements ports.ExpenseStore.
func (r *SQLiteRepository) Replace(ctx context.Context, e core.Expense) error {
	n, err := parseID(e.ID)
	if err != nil {
		return err
	}
	affected, err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{
		Title:    e.Title,
		Amount:   e.Amount.String(),
		Date:     e.Date.ISO(),
		Month:    core.MonthLabel(e.Date),
		ImageUrl: e.ImageURL,
		ID:       n,
	})
	if err != nil {
		return fmt.Errorf("update expense %s: %w", e.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update expense %s: %w", e.ID, ErrNotFound)
	}
	r.logger.DebugContext(ctx, "Expense updated in SQLite", applog.FieldExpenseID, e.ID)
	return nil
}

// Delete implements ports.ExpenseStore.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	affected, err := r.queries.DeleteExpense(ctx, n)
	if err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete expense %s: %w", id, ErrNotFound)
	}
	r.logger.DebugContext(ctx, "Expense deleted from SQLite", applog.FieldExpenseID, id)
	return nil
}

func parseID(id string) (int64, error) {
	if id == "" {
		return 0, core.ErrMissingID
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expense id %q: %w", id, err)
	}
	return n, nil
}

func fromRow(row Expense) (core.RawExpense, error) {
	amount, err := decimalFromText(row.Amount)
	if err != nil {
		return core.RawExpense{}, fmt.Errorf("expense %d: %w", row.ID, err)
	}
	return core.RawExpense{
		ID:       strconv.FormatInt(row.ID, 10),
		Title:    row.Title,
		Amount:   amount,
		Date:     row.Date,
		ImageURL: row.ImageUrl,
	}, nil
}
