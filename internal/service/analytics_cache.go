package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"engage_backend/internal/model"
)

// AnalyticsCache 整卷统计文档的 Redis 缓存。
// 仅缓存无过滤条件的结果，新提交落库后失效。
type AnalyticsCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewAnalyticsCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *AnalyticsCache {
	if rdb == nil {
		return nil
	}
	return &AnalyticsCache{rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(surveyID uint) string {
	return fmt.Sprintf("analytics:survey:%d", surveyID)
}

func (c *AnalyticsCache) Get(ctx context.Context, surveyID uint) (*model.SurveyAnalytics, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(surveyID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("analytics cache read failed", zap.Uint("survey_id", surveyID), zap.Error(err))
		}
		return nil, false
	}
	var doc model.SurveyAnalytics
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.logger.Warn("analytics cache entry corrupt", zap.Uint("survey_id", surveyID), zap.Error(err))
		return nil, false
	}
	return &doc, true
}

func (c *AnalyticsCache) Set(ctx context.Context, surveyID uint, doc *model.SurveyAnalytics) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(surveyID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("analytics cache write failed", zap.Uint("survey_id", surveyID), zap.Error(err))
	}
}

// Invalidate 新提交或问卷结构变更后调用
func (c *AnalyticsCache) Invalidate(ctx context.Context, surveyID uint) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, cacheKey(surveyID)).Err(); err != nil {
		c.logger.Warn("analytics cache invalidation failed", zap.Uint("survey_id", surveyID), zap.Error(err))
	}
}
