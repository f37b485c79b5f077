package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("LOADMASTER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LOADMASTER_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	key := "loadmaster:test:" + uuid.NewString()
	defer c.Delete(ctx, key)

	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("Get before Set = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "payload" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected ping error for closed port")
	}
}
