// Package ident resolves article identifier tokens. Numeric tokens stand
// for themselves; temporary tokens (ID*, TEMP*) are bound to freshly
// allocated IDs and memoized for the rest of the processing run.
package ident

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Allocator hands out new article IDs, one per call.
type Allocator interface {
	NextID(ctx context.Context) (int, error)
}

// AllocatorFunc adapts a function to the Allocator interface.
type AllocatorFunc func(ctx context.Context) (int, error)

// NextID implements Allocator.
func (f AllocatorFunc) NextID(ctx context.Context) (int, error) { return f(ctx) }

// Registry maps temporary tokens to allocated article IDs. It is scoped to
// one processing run: the same token in a different file refers to an
// unrelated entity, so a fresh Registry must be created per file.
type Registry struct {
	alloc  Allocator
	logger *slog.Logger
	ids    map[string]int
}

// NewRegistry creates an empty run-scoped registry.
// If logger is nil, a discard logger is used.
func NewRegistry(alloc Allocator, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		alloc:  alloc,
		logger: logger,
		ids:    make(map[string]int),
	}
}

// Resolve turns a token into an article ID.
// All-digit tokens parse to their own value without allocation. Temporary
// tokens allocate on first sight and return the cached ID afterwards.
// Blank or unrecognized tokens return ok=false with no error; a failed
// allocation returns the error.
func (r *Registry) Resolve(ctx context.Context, token string) (id int, ok bool, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false, nil
	}

	if n, convErr := strconv.Atoi(token); convErr == nil && n >= 0 {
		return n, true, nil
	}

	key := strings.ToUpper(token)
	if !strings.HasPrefix(key, "ID") && !strings.HasPrefix(key, "TEMP") {
		return 0, false, nil
	}

	if id, ok := r.ids[key]; ok {
		return id, true, nil
	}

	id, err = r.alloc.NextID(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("allocating ID for token %q: %w", token, err)
	}
	r.ids[key] = id
	r.logger.Info("allocated article ID", slog.String("token", token), slog.Int("id", id))
	return id, true, nil
}

// Len returns the number of tokens bound so far.
func (r *Registry) Len() int {
	return len(r.ids)
}
