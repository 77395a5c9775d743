package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/sv650s/springboard/internal/contracts"
	"github.com/sv650s/springboard/internal/external/quandl"
)

// StoredFetcher serves previously saved rows in place of the Quandl API,
// so statistics can be recomputed without network access
type StoredFetcher struct {
	repo *Repository
}

// NewStoredFetcher creates a fetcher backed by repo
func NewStoredFetcher(repo *Repository) *StoredFetcher {
	return &StoredFetcher{repo: repo}
}

// FetchDataset loads the stored dataset and narrows it to the request's date range and order
func (f *StoredFetcher) FetchDataset(ctx context.Context, req quandl.Request) (*contracts.Dataset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ds, err := f.repo.LoadDataset(ctx, req.Database, req.Ticker)
	if err != nil {
		return nil, err
	}
	if err := selectRange(ds, req.StartDate, req.EndDate, req.Order); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", req.Label(), err)
	}
	return ds, nil
}

// selectRange keeps rows whose Date is within [start, end] (either bound may be empty)
// and puts them in the requested order. Stored rows are ascending.
func selectRange(ds *contracts.Dataset, start, end, order string) error {
	idx := ds.ColumnIndex(contracts.ColumnDate)
	if idx < 0 {
		return fmt.Errorf("stored rows have no %s column", contracts.ColumnDate)
	}

	kept := ds.Data[:0]
	for _, r := range ds.Data {
		if idx >= len(r) {
			continue
		}
		d := r[idx].String()
		if (start != "" && d < start) || (end != "" && d > end) {
			continue
		}
		kept = append(kept, r)
	}
	ds.Data = kept

	ds.StartDate, ds.EndDate = "", ""
	if len(kept) > 0 {
		ds.StartDate = kept[0][idx].String()
		ds.EndDate = kept[len(kept)-1][idx].String()
	}

	ds.Order = "asc"
	if order == "desc" {
		slices.Reverse(ds.Data)
		ds.Order = order
	}
	return nil
}
