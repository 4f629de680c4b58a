package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/cobrrraa/predlozhka/internal/repo/redis"
)

func TestLimiterBlocksOn10SecondWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := redrepo.NewRateRepo(client)
	limiter := NewLimiter(repo, 100, 2)

	ctx := context.Background()
	userID := int64(42)

	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.AllowSubmission(ctx, userID)
		if err != nil {
			t.Fatalf("allow submission #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.AllowSubmission(ctx, userID)
	if err != nil {
		t.Fatalf("allow submission #3: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on third submission in 10s window")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry_after, got %d", retryAfter)
	}

	mr.FastForward(11 * time.Second)

	retryAfter, allowed, err = limiter.AllowSubmission(ctx, userID)
	if err != nil {
		t.Fatalf("allow submission after 10s window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterBlocksOnMinuteWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := redrepo.NewRateRepo(client)
	limiter := NewLimiter(repo, 3, 100)

	ctx := context.Background()
	userID := int64(77)

	for i := 0; i < 3; i++ {
		_, allowed, err := limiter.AllowSubmission(ctx, userID)
		if err != nil {
			t.Fatalf("allow submission #%d: %v", i+1, err)
		}
		if !allowed {
			t.Fatalf("unexpected block on submission #%d", i+1)
		}
	}

	retryAfter, allowed, err := limiter.AllowSubmission(ctx, userID)
	if err != nil {
		t.Fatalf("allow submission #4: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on fourth submission in minute window")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry_after, got %d", retryAfter)
	}
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var limiter *Limiter

	retryAfter, allowed, err := limiter.AllowSubmission(context.Background(), 1)
	if err != nil {
		t.Fatalf("nil limiter: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("expected nil limiter to allow, got allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
