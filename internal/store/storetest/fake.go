// Package storetest provides an in-memory store.Querier/store.Writer for
// tests of packages that sit on top of the store client.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/GonzaloEspina/barbatero-landing/internal/store"
)

// Call records one request made against the fake.
type Call struct {
	Method string
	Table  string
	Filter string
	Rows   []store.Row
}

// Fake serves canned rows per table. Filtered queries answer from Query
// (nil means "the store returned nothing"), full reads answer from Tables.
type Fake struct {
	mu       sync.Mutex
	Tables   map[string][]store.Row
	Query    map[string][]store.Row
	QueryErr map[string]error
	ReadErr  map[string]error
	WriteErr error
	Calls    []Call
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		Tables:   map[string][]store.Row{},
		Query:    map[string][]store.Row{},
		QueryErr: map[string]error{},
		ReadErr:  map[string]error{},
	}
}

func (f *Fake) record(c Call) {
	f.Calls = append(f.Calls, c)
}

// QueryRows implements store.Querier.
func (f *Fake) QueryRows(_ context.Context, table, filter string) ([]store.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "query", Table: table, Filter: filter})
	if err := f.QueryErr[table]; err != nil {
		return nil, err
	}
	return f.Query[table], nil
}

// ReadAllRows implements store.Querier.
func (f *Fake) ReadAllRows(_ context.Context, table string) ([]store.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "read", Table: table})
	if err := f.ReadErr[table]; err != nil {
		return nil, err
	}
	return f.Tables[table], nil
}

// AddRows implements store.Writer by appending to Tables.
func (f *Fake) AddRows(_ context.Context, table string, rows []store.Row) ([]store.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "add", Table: table, Rows: rows})
	if f.WriteErr != nil {
		return nil, f.WriteErr
	}
	f.Tables[table] = append(f.Tables[table], rows...)
	return rows, nil
}

// EditRows implements store.Writer by merging columns into the stored row
// with the same ID.
func (f *Fake) EditRows(_ context.Context, table string, rows []store.Row) ([]store.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Method: "edit", Table: table, Rows: rows})
	if f.WriteErr != nil {
		return nil, f.WriteErr
	}
	var out []store.Row
	for _, edit := range rows {
		matched := false
		for _, existing := range f.Tables[table] {
			if sameKey(existing, edit) {
				for k, v := range edit {
					existing[k] = v
				}
				out = append(out, existing)
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("storetest: no row in %s matches %v", table, edit)
		}
	}
	return out, nil
}

// Count returns how many calls of method were made against table.
func (f *Fake) Count(method, table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c.Method == method && c.Table == table {
			n++
		}
	}
	return n
}

// LastFilter returns the most recent filter sent for table.
func (f *Fake) LastFilter(table string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Calls) - 1; i >= 0; i-- {
		if f.Calls[i].Method == "query" && f.Calls[i].Table == table {
			return f.Calls[i].Filter
		}
	}
	return ""
}

func sameKey(existing, edit store.Row) bool {
	for _, key := range []string{"ID", "Id", "id", "Row ID"} {
		ev, ok := edit[key]
		if !ok {
			continue
		}
		return store.Text(existing[key]) == store.Text(ev)
	}
	return false
}
