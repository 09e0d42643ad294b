package controllers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hardikmodi/salestrack_backend/models"
)

const stockCacheTTL = time.Minute

// Cache scopes: the branch view folds in self-created records, the plain
// view does not, so the two are cached under separate keys.
const (
	scopeReceived = "received"
	scopeFull     = "full"
)

// stockCache memoizes per-employee stock summaries in Redis. A nil client
// disables caching entirely, which is also how tests run.
type stockCache struct {
	client *redis.Client
}

func newStockCache(client *redis.Client) *stockCache {
	return &stockCache{client: client}
}

func (sc *stockCache) get(ctx context.Context, scope, empCode string) (*models.StockResponse, bool) {
	if sc.client == nil {
		return nil, false
	}
	payload, err := sc.client.Get(ctx, stockCacheKey(scope, empCode)).Bytes()
	if err != nil {
		return nil, false
	}
	var resp models.StockResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (sc *stockCache) set(ctx context.Context, scope, empCode string, resp *models.StockResponse) {
	if sc.client == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	// Cache failures are invisible to callers; the store stays the truth.
	sc.client.Set(ctx, stockCacheKey(scope, empCode), payload, stockCacheTTL)
}

func (sc *stockCache) invalidate(ctx context.Context, empCodes ...string) {
	if sc.client == nil || len(empCodes) == 0 {
		return
	}
	keys := make([]string, 0, 2*len(empCodes))
	for _, code := range empCodes {
		keys = append(keys, stockCacheKey(scopeReceived, code), stockCacheKey(scopeFull, code))
	}
	sc.client.Del(ctx, keys...)
}

func stockCacheKey(scope, empCode string) string {
	return "stock:" + scope + ":" + empCode
}
