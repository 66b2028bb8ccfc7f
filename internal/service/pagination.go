package service

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"snapgram/internal/domain"
	"snapgram/internal/repository"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is a 1-based page number plus page size as sent by clients.
type PageRequest struct {
	Page     int
	PageSize int
}

// Paged is one page of a listing plus enough to fetch the next.
type Paged[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int64
	HasMore  bool
}

// Pager clamps page requests to configured bounds.
type Pager struct {
	DefaultSize int
	MaxSize     int
}

func NewPager(defaultSize, maxSize int) Pager {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if defaultSize > maxSize {
		defaultSize = maxSize
	}
	return Pager{DefaultSize: defaultSize, MaxSize: maxSize}
}

func (p Pager) normalize(req PageRequest) PageRequest {
	if req.Page < 1 {
		req.Page = 1
	}
	switch {
	case req.PageSize <= 0:
		req.PageSize = p.DefaultSize
	case req.PageSize > p.MaxSize:
		req.PageSize = p.MaxSize
	}
	return req
}

// emptyPage is what a listing that short-circuits returns.
func emptyPage[T any](p Pager, req PageRequest) Paged[T] {
	req = p.normalize(req)
	return Paged[T]{Items: []T{}, Page: req.Page, PageSize: req.PageSize}
}

// paginate runs the count and the page query concurrently.
func paginate[T any](
	ctx context.Context,
	p Pager,
	req PageRequest,
	count func(context.Context) (int64, error),
	list func(context.Context, repository.Page) ([]T, error),
) (Paged[T], error) {
	req = p.normalize(req)
	// offset plus one full page must fit in an int
	if req.Page-1 > (math.MaxInt-req.PageSize)/req.PageSize {
		return Paged[T]{}, fmt.Errorf("%w: page %d is out of range", domain.ErrValidation, req.Page)
	}
	window := repository.Page{Limit: req.PageSize, Offset: (req.Page - 1) * req.PageSize}

	var (
		total int64
		items []T
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = count(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = list(gCtx, window)
		return err
	})
	if err := g.Wait(); err != nil {
		return Paged[T]{}, err
	}
	if items == nil {
		items = []T{}
	}

	return Paged[T]{
		Items:    items,
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    total,
		HasMore:  int64(window.Offset+len(items)) < total,
	}, nil
}
