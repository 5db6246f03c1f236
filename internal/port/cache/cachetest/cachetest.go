// Package cachetest provides a compliance suite for cache.Cache
// implementations.
package cachetest

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/AgilePulse/internal/port/cache"
)

// Run runs the standard compliance suite against c. Keys use the dotted
// report key form so remote stores with restricted key alphabets pass too.
func Run(t *testing.T, c cache.Cache) {
	t.Helper()
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := c.Set(ctx, "report.compliance.key", []byte("compliance-val"), time.Minute); err != nil {
			t.Fatal(err)
		}
		val, found, err := c.Get(ctx, "report.compliance.key")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after Set")
		}
		if string(val) != "compliance-val" {
			t.Fatalf("expected compliance-val, got %s", val)
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, found, err := c.Get(ctx, "report.compliance.missing")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss for nonexistent key")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "report.compliance.del", []byte("del-val"), time.Minute)
		if err := c.Delete(ctx, "report.compliance.del"); err != nil {
			t.Fatal(err)
		}
		_, found, err := c.Get(ctx, "report.compliance.del")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Fatal("expected miss after Delete")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		if err := c.Delete(ctx, "report.compliance.never"); err != nil {
			t.Fatal("Delete of nonexistent key should not error")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "report.compliance.ow", []byte("v1"), time.Minute)
		_ = c.Set(ctx, "report.compliance.ow", []byte("v2"), time.Minute)
		val, found, err := c.Get(ctx, "report.compliance.ow")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("expected found after overwrite")
		}
		if string(val) != "v2" {
			t.Fatalf("expected v2 after overwrite, got %s", val)
		}
	})

	p, ok := c.(cache.PrefixInvalidator)
	if !ok {
		return
	}
	t.Run("DeletePrefix", func(t *testing.T) {
		_ = c.Set(ctx, "report.prefix.a", []byte("a"), time.Minute)
		_ = c.Set(ctx, "report.prefix.b", []byte("b"), time.Minute)
		_ = c.Set(ctx, "org.prefix", []byte("keep"), time.Minute)

		n, err := p.DeletePrefix(ctx, "report.prefix.")
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Fatalf("expected 2 keys removed, got %d", n)
		}
		for _, k := range []string{"report.prefix.a", "report.prefix.b"} {
			if _, found, _ := c.Get(ctx, k); found {
				t.Fatalf("expected %s removed", k)
			}
		}
		if _, found, _ := c.Get(ctx, "org.prefix"); !found {
			t.Fatal("key outside the prefix must survive")
		}
	})
}
