package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"geoscatter/internal/redis"
)

func readAll(t *testing.T, src Source) string {
	t.Helper()
	rc, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch(%s): %v", src, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.csv")
	if err := os.WriteFile(path, []byte("id\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := readAll(t, For(path, nil)); got != "id\n1\n" {
		t.Errorf("content = %q", got)
	}

	if _, err := (File{Path: path + ".missing"}).Fetch(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		io.WriteString(w, "OBJECTID,NAME,X,Y\n")
	}))
	defer srv.Close()

	src := For(srv.URL+"/airports.csv", srv.Client())
	if _, ok := src.(HTTP); !ok {
		t.Fatalf("For picked %T", src)
	}
	if got := readAll(t, src); got != "OBJECTID,NAME,X,Y\n" {
		t.Errorf("content = %q", got)
	}

	_, err := HTTP{URL: srv.URL + "/missing"}.Fetch(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Errorf("error = %v, want 404 StatusError", err)
	}
}

type countingSource struct {
	calls atomic.Int32
	body  string
}

func (c *countingSource) Fetch(context.Context) (io.ReadCloser, error) {
	c.calls.Add(1)
	return io.NopCloser(strings.NewReader(c.body)), nil
}

func (c *countingSource) String() string { return "counting" }

func TestCachedFillsAndServesFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	origin := &countingSource{body: "id\n1\n"}
	src := Cached(origin, redis.NewCache(client, "test:"), "cities", time.Minute, nil)

	for i := 0; i < 3; i++ {
		if got := readAll(t, src); got != "id\n1\n" {
			t.Fatalf("content = %q", got)
		}
	}
	if n := origin.calls.Load(); n != 1 {
		t.Errorf("origin fetched %d times, want 1", n)
	}
}

func TestCachedFallsBackWhenCacheFails(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.SetError("ERR cache unavailable")

	origin := &countingSource{body: "id\n2\n"}
	src := Cached(origin, redis.NewCache(client, "test:"), "cities", time.Minute, nil)

	if got := readAll(t, src); got != "id\n2\n" {
		t.Errorf("content = %q", got)
	}
	if n := origin.calls.Load(); n != 1 {
		t.Errorf("origin fetched %d times, want 1", n)
	}
}

func TestCachedInvalidateRefetchesOrigin(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	origin := &countingSource{body: "id\n3\n"}
	src := Cached(origin, redis.NewCache(client, "test:"), "airports", time.Minute, nil)
	readAll(t, src)

	inv, ok := src.(Invalidator)
	if !ok {
		t.Fatalf("%T does not implement Invalidator", src)
	}
	if err := inv.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists("test:airports") {
		t.Error("cached key survived Invalidate")
	}

	readAll(t, src)
	if n := origin.calls.Load(); n != 2 {
		t.Errorf("origin fetched %d times, want 2", n)
	}
}
