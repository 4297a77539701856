package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestKeyIsInjective(t *testing.T) {
	cases := [][]Field{
		{Opt(""), Opt("")},
		{F(""), Opt("")},
		{Opt(""), F("")},
		{F("a:b"), Opt("")},
		{F("a"), F("b")},
		{F("a:=b"), Opt("")},
		{F("-"), Opt("")},
		{F("a b"), F("c")},
		{F("a+b"), F("c")},
	}
	seen := map[string]int{}
	for i, fields := range cases {
		k := Key("search", fields...)
		if j, dup := seen[k]; dup {
			t.Fatalf("cases %d and %d share key %q", j, i, k)
		}
		seen[k] = i
	}
	if Key("search", F("x")) == Key("detail", F("x")) {
		t.Fatalf("namespaces must separate keys")
	}
	if Key("search", F("Pune"), Opt("")) != Key("search", F("Pune"), Opt("")) {
		t.Fatalf("key must be deterministic")
	}
}

func exerciseCache(t *testing.T, c Cache, expire func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	res, err := c.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if res.Hit {
		t.Fatalf("expected miss")
	}

	if err := c.Set(ctx, "empty", []byte{}, time.Minute); err != nil {
		t.Fatalf("set empty: %v", err)
	}
	res, err = c.Get(ctx, "empty")
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if !res.Hit || len(res.Value) != 0 {
		t.Fatalf("empty payload must be a hit, got %+v", res)
	}

	if err := c.Set(ctx, "k", []byte(`{"a":1}`), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	res, _ = c.Get(ctx, "k")
	if !res.Hit || string(res.Value) != `{"a":1}` {
		t.Fatalf("unexpected result: %+v", res)
	}

	expire(2 * time.Second)
	res, _ = c.Get(ctx, "k")
	if res.Hit {
		t.Fatalf("expired entry must be a miss")
	}

	_ = c.Set(ctx, "gone", []byte("x"), time.Minute)
	if err := c.Delete(ctx, "gone", "never-set"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	res, _ = c.Get(ctx, "gone")
	if res.Hit {
		t.Fatalf("deleted entry must be a miss")
	}
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, NewMemoryCache(), func(d time.Duration) { time.Sleep(d) })
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedisCache("redis://" + mr.Addr() + "/0")
	if err != nil {
		t.Fatalf("new redis cache: %v", err)
	}
	defer c.Close()
	exerciseCache(t, c, mr.FastForward)
}

func TestRedisCacheReportsBackendErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedisCache("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("new redis cache: %v", err)
	}
	defer c.Close()
	mr.Close()
	if _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error from failing backend")
	}
}

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	if _, err := NewRedisCache("not a url"); err == nil {
		t.Fatalf("expected parse error")
	}
}
