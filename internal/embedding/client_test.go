package embedding

import (
	"context"
	"testing"
)

type fakeProvider struct {
	calls int
	vec   []float32
	err   error
}

func (f *fakeProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

func TestClientWithoutCacheCallsProviderEveryTime(t *testing.T) {
	fp := &fakeProvider{vec: []float32{0.1, 0.2, 0.3}}
	c := NewClient(fp, nil, 0, nil)

	for i := 0; i < 3; i++ {
		vec, err := c.Embed(context.Background(), "hello world")
		if err != nil {
			t.Fatalf("Embed returned error: %v", err)
		}
		if len(vec) != 3 {
			t.Fatalf("unexpected vector length: %d", len(vec))
		}
	}
	if fp.calls != 3 {
		t.Errorf("want 3 provider calls without a cache, got %d", fp.calls)
	}
}

func TestContentHashDeterministicAndDistinct(t *testing.T) {
	a := contentHash("I love strawberries")
	b := contentHash("I love strawberries")
	c := contentHash("I love blueberries")
	if a != b {
		t.Errorf("contentHash not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("contentHash collided for distinct inputs")
	}
}
