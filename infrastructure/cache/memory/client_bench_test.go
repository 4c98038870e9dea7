package memory

import (
	"context"
	"crypto/rand"
	"fmt"
	"testing"
	"time"
)

// faviconKey mirrors the shape of keys the cached finder writes
func faviconKey(i int) string {
	return fmt.Sprintf("favicon:https://site-%d.example.com/|html|fetch", i)
}

// iconPayload approximates an encoded 32x32 favicon record
func iconPayload(b *testing.B) []byte {
	b.Helper()
	payload := make([]byte, 4<<10)
	if _, err := rand.Read(payload); err != nil {
		b.Fatal(err)
	}
	return payload
}

func BenchmarkMemoryCache_Hit(b *testing.B) {
	cache := NewMemoryCache()
	ctx := context.Background()
	payload := iconPayload(b)

	for i := 0; i < 1000; i++ {
		cache.Set(ctx, faviconKey(i), payload, time.Hour)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cache.Get(ctx, faviconKey(i%1000))
	}
}

func BenchmarkMemoryCache_Miss(b *testing.B) {
	cache := NewMemoryCache()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cache.Get(ctx, faviconKey(i))
	}
}

func BenchmarkMemoryCache_Store(b *testing.B) {
	cache := NewMemoryCache()
	ctx := context.Background()
	payload := iconPayload(b)

	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cache.Set(ctx, faviconKey(i), payload, 24*time.Hour)
	}
}

func BenchmarkMemoryCache_ParallelHits(b *testing.B) {
	cache := NewMemoryCache()
	ctx := context.Background()
	payload := iconPayload(b)

	for i := 0; i < 100; i++ {
		cache.Set(ctx, faviconKey(i), payload, time.Hour)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = cache.Get(ctx, faviconKey(i%100))
			i++
		}
	})
}

func BenchmarkMemoryCache_ParallelMixed(b *testing.B) {
	cache := NewMemoryCache()
	ctx := context.Background()
	payload := iconPayload(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := faviconKey(i % 500)
			if _, err := cache.Get(ctx, key); err != nil {
				_ = cache.Set(ctx, key, payload, time.Hour)
			}
			i++
		}
	})
}

func BenchmarkMemoryCache_ExpiredEntries(b *testing.B) {
	cache := NewMemoryCache()
	ctx := context.Background()
	payload := iconPayload(b)

	for i := 0; i < 1000; i++ {
		cache.Set(ctx, faviconKey(i), payload, time.Nanosecond)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cache.Get(ctx, faviconKey(i%1000))
	}
}
