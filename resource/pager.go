// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"context"
	"iter"

	"google.golang.org/api/iterator"
)

// DefaultPageSize is used when a single page is fetched from a generated iterator without a page size.
const DefaultPageSize = 100

// Page is one page of a list call.
type Page[T any] struct {
	Items         []T
	NextPageToken string
}

// PageFunc fetches the page starting at token; "" is the first page.
type PageFunc[T any] func(ctx context.Context, token string) (*Page[T], error)

// Pager iterates a list call across page tokens.
type Pager[T any] struct {
	fetch PageFunc[T]
	start string
}

// NewPager returns a pager over fetch, starting at the first page.
func NewPager[T any](fetch PageFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch}
}

// StartAt returns a pager that starts at token instead of the first page.
func (p *Pager[T]) StartAt(token string) *Pager[T] {
	return &Pager[T]{fetch: p.fetch, start: token}
}

// NextPage fetches the page starting at token.
func (p *Pager[T]) NextPage(ctx context.Context, token string) (*Page[T], error) {
	page, err := p.fetch(ctx, token)
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = &Page[T]{}
	}
	return page, nil
}

// All yields every item in server order. Each call starts a new iteration;
// iteration ends when a page carries an empty next page token.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		token := p.start
		for {
			page, err := p.NextPage(ctx, token)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
			if page.NextPageToken == "" {
				return
			}
			token = page.NextPageToken
		}
	}
}

// FetchPage reads exactly one page of a generated client iterator.
//
// The iterator must have been created from a request carrying the same token.
func FetchPage[T any](it iterator.Pageable, pageSize int, token string) (*Page[T], error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var items []T
	next, err := iterator.NewPager(it, pageSize, token).NextPage(&items)
	if err != nil {
		return nil, err
	}
	return &Page[T]{Items: items, NextPageToken: next}, nil
}
