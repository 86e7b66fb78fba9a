// Package aggregator keeps the month-grouped view of the user's expenses in
// step with the remote store. Load rebuilds it; Insert, Update and Delete
// patch it from their own results without refetching.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"moneymanager/internal/core"
	applog "moneymanager/internal/log"
	"moneymanager/internal/ports"
)

// DefaultTimeout bounds every remote call made by an operation.
const DefaultTimeout = 20 * time.Second

// Receipts uploads and removes receipt images.
type Receipts interface {
	Upload(ctx context.Context, f core.ReceiptFile) (url string, err error)
	Remove(ctx context.Context, urlOrKey string) error
}

// Aggregator owns the grouped expense state. All methods are safe for
// concurrent use; each operation applies its result under the lock once
// its remote calls have finished.
type Aggregator struct {
	store    ports.ExpenseStore
	receipts Receipts
	timeout  time.Duration
	logger   *applog.Logger

	loads singleflight.Group

	mu    sync.Mutex
	state State
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTimeout sets the per-operation timeout. Zero disables it.
func WithTimeout(d time.Duration) Option { return func(a *Aggregator) { a.timeout = d } }

// WithLogger sets the logger.
func WithLogger(l *applog.Logger) Option { return func(a *Aggregator) { a.logger = l } }

// New returns an idle aggregator. receipts may be nil when no blob store is
// configured; operations that carry a file then fail with an upload failure.
func New(store ports.ExpenseStore, receipts Receipts, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:    store,
		receipts: receipts,
		timeout:  DefaultTimeout,
		state:    State{Groups: core.Groups{}, Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = applog.Discard()
	}
	a.logger = a.logger.WithComponent(applog.ComponentAggregator)
	return a
}

// State returns a snapshot of the aggregate.
func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.state
	s.Groups = a.state.Groups.Clone()
	return s
}

// Groups returns a copy of the month groups.
func (a *Aggregator) Groups() core.Groups {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Groups.Clone()
}

// Err returns the error of the last failed operation, cleared by the next
// successful one.
func (a *Aggregator) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Err
}

// Summary returns monthly and yearly spending for year.
func (a *Aggregator) Summary(year int) core.SpendingSummary {
	return core.Summarize(a.Groups().Flatten(), year)
}

// Receipts returns the records that carry a receipt image.
func (a *Aggregator) Receipts() []core.Expense {
	return a.Groups().Receipts()
}

// Load replaces the aggregate with every record from the store. Concurrent
// calls share one fetch. On failure the previous groups stay in place.
func (a *Aggregator) Load(ctx context.Context) error {
	a.mu.Lock()
	a.state.Loading = true
	a.state.Status = StatusLoading
	a.mu.Unlock()

	// The shared fetch must not die with whichever caller started it.
	ch := a.loads.DoChan("load", func() (any, error) {
		fctx, cancel := a.withTimeout(context.WithoutCancel(ctx))
		defer cancel()
		return nil, a.load(fctx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", core.ErrFetchFailure, ctx.Err())
	}
}

func (a *Aggregator) load(ctx context.Context) error {
	start := time.Now()
	raws, err := a.store.List(ctx)
	var groups core.Groups
	if err == nil {
		var records []core.Expense
		records, err = normalizeAll(raws)
		if err == nil {
			groups = buildGroups(records)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Loading = false
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrFetchFailure, err)
		a.state.Err = err
		a.state.Status = StatusFailed
		a.logFailure(ctx, applog.OpLoad, err, applog.NewFields())
		return err
	}
	a.state.Groups = groups
	a.state.Err = nil
	a.state.Status = StatusReady
	a.log(ctx).InfoContext(ctx, "Expenses loaded",
		applog.FieldOperation, applog.OpLoad,
		applog.FieldCount, len(raws),
		"months", len(groups),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Insert creates a record from draft. When file is given it is uploaded
// first and the record is only created if the upload succeeds. The new
// record is appended to the end of its month group.
func (a *Aggregator) Insert(ctx context.Context, draft core.Draft, file *core.ReceiptFile) (core.Expense, error) {
	e, err := draft.Build()
	if err != nil {
		return core.Expense{}, a.fail(ctx, applog.OpCreate, core.ErrCreateFailure, err, draft)
	}
	e.ID = ""

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if file != nil {
		url, err := a.upload(ctx, *file)
		if err != nil {
			return core.Expense{}, a.fail(ctx, applog.OpCreate, core.ErrUploadFailure, err, draft)
		}
		e.ImageURL = url
	}

	id, err := a.store.Create(ctx, e)
	if err != nil {
		return core.Expense{}, a.fail(ctx, applog.OpCreate, core.ErrCreateFailure, err, draft)
	}
	e.ID = id

	a.mu.Lock()
	a.state.Groups = applyInsert(a.state.Groups, e)
	a.settle()
	a.mu.Unlock()

	a.logSuccess(ctx, "Expense created", applog.OpCreate, e)
	return e, nil
}

// Update replaces the record draft.ID. A new file replaces the image; with
// no file the current image is kept unless draft.ClearImage is set.
func (a *Aggregator) Update(ctx context.Context, draft core.Draft, file *core.ReceiptFile) (core.Expense, error) {
	if draft.ID == "" {
		return core.Expense{}, a.fail(ctx, applog.OpUpdate, core.ErrUpdateFailure, core.ErrMissingID, draft)
	}
	e, err := draft.Build()
	if err != nil {
		return core.Expense{}, a.fail(ctx, applog.OpUpdate, core.ErrUpdateFailure, err, draft)
	}
	if e.ImageURL == "" && !draft.ClearImage {
		if current, ok := a.find(draft.ID); ok {
			e.ImageURL = current.ImageURL
		}
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if file != nil {
		url, err := a.upload(ctx, *file)
		if err != nil {
			return core.Expense{}, a.fail(ctx, applog.OpUpdate, core.ErrUploadFailure, err, draft)
		}
		e.ImageURL = url
	}

	if err := a.store.Replace(ctx, e); err != nil {
		return core.Expense{}, a.fail(ctx, applog.OpUpdate, core.ErrUpdateFailure, err, draft)
	}

	a.mu.Lock()
	a.state.Groups = applyUpdate(a.state.Groups, e)
	a.settle()
	a.mu.Unlock()

	a.logSuccess(ctx, "Expense updated", applog.OpUpdate, e)
	return e, nil
}

// Delete removes the record id from the store and from every group.
// Groups left empty are dropped.
func (a *Aggregator) Delete(ctx context.Context, id string) error {
	if id == "" {
		return a.fail(ctx, applog.OpDelete, core.ErrDeleteFailure, core.ErrMissingID, core.Draft{})
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.store.Delete(ctx, id); err != nil {
		return a.fail(ctx, applog.OpDelete, core.ErrDeleteFailure, err, core.Draft{ID: id})
	}

	a.mu.Lock()
	a.state.Groups = applyDelete(a.state.Groups, id)
	a.settle()
	a.mu.Unlock()

	a.log(ctx).InfoContext(ctx, "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)
	return nil
}

// RemoveReceipt deletes the receipt image of record id from the blob store
// and then updates the record without it.
func (a *Aggregator) RemoveReceipt(ctx context.Context, id string) (core.Expense, error) {
	current, ok := a.find(id)
	if !ok {
		return core.Expense{}, a.fail(ctx, applog.OpRemoveReceipt, core.ErrUpdateFailure, ErrNotFound, core.Draft{ID: id})
	}
	if current.ImageURL == "" {
		return core.Expense{}, a.fail(ctx, applog.OpRemoveReceipt, core.ErrUpdateFailure, ErrNoReceipt, core.DraftOf(current))
	}
	if a.receipts == nil {
		return core.Expense{}, a.fail(ctx, applog.OpRemoveReceipt, core.ErrUpdateFailure, errNoBlobStore, core.DraftOf(current))
	}

	rctx, cancel := a.withTimeout(ctx)
	err := a.receipts.Remove(rctx, current.ImageURL)
	cancel()
	if err != nil {
		return core.Expense{}, a.fail(ctx, applog.OpRemoveReceipt, core.ErrUpdateFailure, err, core.DraftOf(current))
	}

	draft := core.DraftOf(current)
	draft.ImageURL = ""
	draft.ClearImage = true
	return a.Update(ctx, draft, nil)
}

var errNoBlobStore = errors.New("no blob store configured")

func (a *Aggregator) upload(ctx context.Context, f core.ReceiptFile) (string, error) {
	if a.receipts == nil {
		return "", errNoBlobStore
	}
	return a.receipts.Upload(ctx, f)
}

func (a *Aggregator) find(id string) (core.Expense, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Groups.Find(id)
}

func (a *Aggregator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// fail wraps cause with kind, records it as the aggregate's last error and
// logs it. The groups are left untouched.
// settle clears the last error after a successful write. Callers hold mu.
func (a *Aggregator) settle() {
	a.state.Err = nil
	if a.state.Status == StatusFailed {
		a.state.Status = StatusReady
	}
}

func (a *Aggregator) fail(ctx context.Context, op string, kind, cause error, d core.Draft) error {
	err := cause
	if !errors.Is(cause, kind) {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	a.mu.Lock()
	a.state.Err = err
	a.mu.Unlock()

	a.logFailure(ctx, op, err, applog.NewFields().
		WithExpense(d.ID, d.Title, d.Amount.String(), ""))
	return err
}

// log prefers the logger carried by ctx, which holds per-command attributes.
func (a *Aggregator) log(ctx context.Context) *applog.Logger {
	return applog.Scoped(ctx, a.logger)
}

func (a *Aggregator) logFailure(ctx context.Context, op string, err error, fields applog.LogFields) {
	applog.NewStructuredLogger(a.log(ctx)).LogError(ctx, "Expense operation failed", err, applog.ComponentAggregator, op,
		fields.WithErrorKind(core.FailureKind(err)))
}

func (a *Aggregator) logSuccess(ctx context.Context, msg, op string, e core.Expense) {
	applog.NewStructuredLogger(a.log(ctx)).LogOperation(ctx, msg, applog.ComponentAggregator, op,
		applog.NewFields().WithExpense(e.ID, e.Title, e.Amount.String(), e.Month))
}

// LoadAsync runs Load in the background.
func (a *Aggregator) LoadAsync(ctx context.Context) *Future[core.Groups] {
	return goFuture(func() (core.Groups, error) {
		if err := a.Load(ctx); err != nil {
			return nil, err
		}
		return a.Groups(), nil
	})
}

// InsertAsync runs Insert in the background.
func (a *Aggregator) InsertAsync(ctx context.Context, draft core.Draft, file *core.ReceiptFile) *Future[core.Expense] {
	return goFuture(func() (core.Expense, error) { return a.Insert(ctx, draft, file) })
}

// UpdateAsync runs Update in the background.
func (a *Aggregator) UpdateAsync(ctx context.Context, draft core.Draft, file *core.ReceiptFile) *Future[core.Expense] {
	return goFuture(func() (core.Expense, error) { return a.Update(ctx, draft, file) })
}

// DeleteAsync runs Delete in the background.
func (a *Aggregator) DeleteAsync(ctx context.Context, id string) *Future[struct{}] {
	return goFuture(func() (struct{}, error) { return struct{}{}, a.Delete(ctx, id) })
}

// RemoveReceiptAsync runs RemoveReceipt in the background.
func (a *Aggregator) RemoveReceiptAsync(ctx context.Context, id string) *Future[core.Expense] {
	return goFuture(func() (core.Expense, error) { return a.RemoveReceipt(ctx, id) })
}
