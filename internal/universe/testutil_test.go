// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

package universe_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/shoprag/universe/internal/index"
	unierr "github.com/shoprag/universe/pkg/errors"
)

// fakeProvider returns deterministic 3-dimensional vectors derived from the
// text so that identical texts are exact matches. It records call counts so
// tests can assert that validation happens before any provider call.
type fakeProvider struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (p *fakeProvider) Name() string        { return "fake" }
func (p *fakeProvider) Dimensions() int     { return 3 }
func (p *fakeProvider) MaxInputTokens() int { return 8192 }

func (p *fakeProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.fail != nil {
		return nil, p.fail
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = textVector(text)
	}
	return out, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// textVector hashes text into a unit vector so cosine similarity behaves:
// same text → closeness 1, different text → strictly less.
func textVector(text string) []float32 {
	var h1, h2, h3 uint32 = 17, 31, 47
	for _, c := range text {
		h1 = h1*31 + uint32(c)
		h2 = h2*37 + uint32(c)
		h3 = h3*41 + uint32(c)
	}
	v := []float32{float32(h1%1000) + 1, float32(h2%1000) + 1, float32(h3%1000) + 1}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// fakeIndex is an in-memory index.Index used to test orchestration without
// the sqlite-vec dependency. It mirrors the contract: upsert by id, no-op
// delete, cosine ranking with insertion-order tie-break, directory-backed
// existence so registry Exists/Destroy semantics hold.
type fakeIndex struct {
	mu      sync.Mutex
	dir     string
	dims    int
	nextSeq int
	records []fakeRecord
	nextID  int
}

type fakeRecord struct {
	id   string
	vec  []float32
	text string
	seq  int
}

func openFake(dir string, dims int) (index.Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fakeIndex{dir: dir, dims: dims}, nil
}

func (f *fakeIndex) Insert(_ context.Context, id string, vector []float32, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(vector) != f.dims {
		return "", unierr.Errorf(unierr.CodeIndexDimensionMismatch,
			"vector has %d dimensions, index is pinned to %d", len(vector), f.dims)
	}
	if id == "" {
		f.nextID++
		id = fmt.Sprintf("gen-%d", f.nextID)
	}
	f.deleteLocked(id)
	f.nextSeq++
	f.records = append(f.records, fakeRecord{id: id, vec: vector, text: text, seq: f.nextSeq})
	return id, nil
}

func (f *fakeIndex) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteLocked(id)
	return nil
}

func (f *fakeIndex) deleteLocked(id string) {
	for i, r := range f.records {
		if r.id == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return
		}
	}
}

func (f *fakeIndex) Query(_ context.Context, vector []float32, k int) ([]index.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if k <= 0 {
		return nil, unierr.Errorf(unierr.CodeReachInvalid, "query k must be positive, got %d", k)
	}

	type scored struct {
		r         fakeRecord
		closeness float64
	}
	all := make([]scored, 0, len(f.records))
	for _, r := range f.records {
		all = append(all, scored{r: r, closeness: cosine(vector, r.vec)})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].closeness != all[j].closeness {
			return all[i].closeness > all[j].closeness
		}
		return all[i].r.seq < all[j].r.seq
	})

	if k > len(all) {
		k = len(all)
	}
	results := make([]index.Result, 0, k)
	for _, s := range all[:k] {
		results = append(results, index.Result{ID: s.r.id, Text: s.r.text, Closeness: s.closeness})
	}
	return results, nil
}

func (f *fakeIndex) ListIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(f.records))
	for _, r := range f.records {
		ids = append(ids, r.id)
	}
	return ids, nil
}

func (f *fakeIndex) Destroy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = nil
	return os.RemoveAll(f.dir)
}

func (f *fakeIndex) Close() error { return nil }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
