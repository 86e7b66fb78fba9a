// Package memory is an in-process expense store for demos and tests.
package memory

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"moneymanager/internal/core"
)

type Store struct {
	mu    sync.Mutex
	order []string
	items map[string]core.RawExpense
}

func New(seed ...core.RawExpense) *Store {
	s := &Store{items: make(map[string]core.RawExpense)}
	for _, r := range seed {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		s.put(r)
	}
	return s
}

// NewFromFile seeds the store from a text file with one record per line:
//
//	date;title;amount[;imageurl]
//
// Blank lines and lines starting with # are skipped. A missing file yields
// an empty store; any other read error is returned.
func NewFromFile(path string) (*Store, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	seed := make([]core.RawExpense, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(line.text, ";")
		if len(parts) < 3 {
			return nil, fmt.Errorf("%s:%d: expected date;title;amount", path, line.n)
		}
		amount, err := core.ParseAmount(parts[2])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line.n, err)
		}
		raw := core.RawExpense{
			Date:   strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(parts[1]),
			Amount: amount,
		}
		if len(parts) > 3 {
			raw.ImageURL = strings.TrimSpace(parts[3])
		}
		seed = append(seed, raw)
	}
	return New(seed...), nil
}

func (s *Store) put(r core.RawExpense) {
	if _, ok := s.items[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.items[r.ID] = r
}

// List implements ports.ExpenseStore, returning records in insertion order.
func (s *Store) List(_ context.Context) ([]core.RawExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RawExpense, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out, nil
}

// Create implements ports.ExpenseStore.
func (s *Store) Create(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.put(toRaw(id, e))
	return id, nil
}

// Replace implements ports.ExpenseStore.
func (s *Store) Replace(_ context.Context, e core.Expense) error {
	if e.ID == "" {
		return core.ErrMissingID
	}
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.ID]; !ok {
		return fmt.Errorf("expense %s not found", e.ID)
	}
	s.put(toRaw(e.ID, e))
	return nil
}

// Delete implements ports.ExpenseStore.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("expense %s not found", id)
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func toRaw(id string, e core.Expense) core.RawExpense {
	return core.RawExpense{
		ID:       id,
		Title:    e.Title,
		Amount:   e.Amount,
		Date:     e.Date.Display(),
		ImageURL: e.ImageURL,
	}
}

type seedLine struct {
	n    int
	text string
}

func readLines(path string) ([]seedLine, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	var out []seedLine
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, seedLine{n: n, text: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return out, nil
}
