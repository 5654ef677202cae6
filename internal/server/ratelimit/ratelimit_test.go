package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/ai/clusters", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/ai/clusters", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Positive(t, info.RetryAfter)
	assert.True(t, info.ResetTime.After(time.Now()))

	// other clients keep their own bucket
	allowed, _ = limiter.Allow("10.0.0.2", "/ai/clusters", "GET")
	assert.True(t, allowed)
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/ai/folders", "GET")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}

	allowed, _ := limiter.Allow("192.168.1.1", "/ai/folders", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/ai/search", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/ai/search", Method: "GET", Limit: 5, Window: time.Hour, Burst: 5},
			{Path: "/ai/clusters/", Method: "GET", Limit: 2, Window: time.Hour, Burst: 2},
		},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/ai/search", "GET")
		require.True(t, allowed)
		assert.Equal(t, 5, info.Limit)
	}
	allowed, _ := limiter.Allow("127.0.0.1", "/ai/search", "GET")
	assert.False(t, allowed)

	allowed, info := limiter.Allow("127.0.0.1", "/ai/folders", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)

	// prefix-matched paths share one bucket
	allowed, _ = limiter.Allow("127.0.0.1", "/ai/clusters/1/bookmarks", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("127.0.0.1", "/ai/clusters/2/bookmarks", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("127.0.0.1", "/ai/clusters/3/bookmarks", "GET")
	assert.False(t, allowed)
}

func TestLimiter_UnlimitedPaths(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET")
		require.True(t, allowed)
		allowed, _ = limiter.Allow("127.0.0.1", "/metrics", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour})
	defer limiter.Stop()

	var (
		wg      sync.WaitGroup
		granted atomic.Int32
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("127.0.0.1", "/ai/folders", "GET"); ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(100), granted.Load())
}

func TestLimiter_EvictIdle(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, IdleTimeout: time.Minute})
	defer limiter.Stop()

	limiter.Allow("a", "/ai/folders", "GET")
	limiter.Allow("b", "/ai/folders", "GET")

	assert.Zero(t, limiter.evictIdle(time.Now()))
	assert.Equal(t, 2, limiter.evictIdle(time.Now().Add(2*time.Minute)))
	assert.Empty(t, limiter.visitors)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path, method string
		wantPath     string
		wantNil      bool
	}{
		{"/ai/search", "GET", "/ai/search", false},
		{"/ai/clusters/4/bookmarks", "GET", "/ai/clusters/", false},
		{"/ai/projects/Go/bookmarks", "GET", "/ai/projects/", false},
		{"/health", "GET", "/health", false},
		{"/ai/folders", "GET", "", true},
		{"/ai/search", "POST", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}
}

func TestMatchEndpoint_LongestPrefixAndWildcard(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/ai/", Method: AnyMethod, Limit: 10},
		{Path: "/ai/clusters/", Method: "GET", Limit: 20},
		{Path: "/ai/clusters/0/bookmarks", Method: "GET", Limit: 30},
	}

	assert.Equal(t, 30, MatchEndpoint("/ai/clusters/0/bookmarks", "GET", configs).Limit)
	assert.Equal(t, 20, MatchEndpoint("/ai/clusters/7/bookmarks", "GET", configs).Limit)
	assert.Equal(t, 10, MatchEndpoint("/ai/clusters/7/bookmarks", "POST", configs).Limit)
	assert.Equal(t, 10, MatchEndpoint("/ai/status", "HEAD", configs).Limit)
	assert.Nil(t, MatchEndpoint("/other", "GET", configs))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_WHITELIST", " 10.0.0.1, ,10.0.0.2")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Whitelist)
	assert.NotEmpty(t, cfg.EndpointConfigs)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
