// Package ports declares the outbound interfaces the expense client depends
// on. Adapters live next to the concern they serve: remote, storage and
// memory for records, blob for receipt images, auth for identity and rates
// for exchange tables.
package ports

import (
	"context"

	"moneymanager/internal/core"
)

type (
	// ExpenseStore is the system of record for expenses.
	ExpenseStore interface {
		// List returns every record, unordered, with wire dates.
		List(ctx context.Context) ([]core.RawExpense, error)
		// Create stores a new record and returns the id assigned to it.
		Create(ctx context.Context, e core.Expense) (id string, err error)
		// Replace overwrites the record keyed by e.ID.
		Replace(ctx context.Context, e core.Expense) error
		Delete(ctx context.Context, id string) error
	}

	// BlobStore keeps receipt images.
	BlobStore interface {
		// Store writes data under key and returns an opaque handle.
		Store(ctx context.Context, key string, data []byte, contentType string) (handle string, err error)
		// Resolve turns a handle into a fetchable URL.
		Resolve(ctx context.Context, handle string) (url string, err error)
		// Delete accepts either a URL returned by Resolve or a key.
		Delete(ctx context.Context, urlOrKey string) error
	}

	// AuthProvider signs users in and out.
	AuthProvider interface {
		SignInWithEmail(ctx context.Context, email, password string) (core.Identity, error)
		SignUpWithEmail(ctx context.Context, email, password string) (core.Identity, error)
		SignInWithFederatedProvider(ctx context.Context, cred core.FederatedCredential) (core.Identity, error)
	}

	// RateFetcher returns conversion tables for a base currency.
	RateFetcher interface {
		Latest(ctx context.Context, base string) (core.RateTable, error)
	}
)
