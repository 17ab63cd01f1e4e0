package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hospitalcore/surgical-procedures/internal/domain/entities"
	"github.com/hospitalcore/surgical-procedures/internal/domain/providers"
	"github.com/hospitalcore/surgical-procedures/internal/domain/repositories"
)

// ruleByCodeTTL is the cache lifetime in seconds for active rule lookups.
// Rules change rarely; every validation hits this path.
const ruleByCodeTTL = 300

// CachedRuleAdapter wraps a RuleRepository with read-through caching for
// active rule lookups. Writes invalidate the affected code's entry.
type CachedRuleAdapter struct {
	adapter repositories.RuleRepository
	cache   providers.CacheProvider
}

// NewCachedRuleAdapter creates a new cached rule adapter
func NewCachedRuleAdapter(adapter repositories.RuleRepository, cache providers.CacheProvider) repositories.RuleRepository {
	return &CachedRuleAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

func ruleCacheKey(procedureCode string) string {
	return fmt.Sprintf("rules:active:%s", procedureCode)
}

// GetActiveByCode retrieves the active rule for a procedure code with caching
func (a *CachedRuleAdapter) GetActiveByCode(ctx context.Context, procedureCode string) (*entities.PortValidationRule, error) {
	cacheKey := ruleCacheKey(procedureCode)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var rule entities.PortValidationRule
		if err := json.Unmarshal(cached, &rule); err == nil {
			return &rule, nil
		}
		log.Warn().Err(err).Str("procedure_code", procedureCode).Msg("failed to unmarshal cached rule")
	}

	rule, err := a.adapter.GetActiveByCode(ctx, procedureCode)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the validation path
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(rule); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, ruleByCodeTTL); err != nil {
				log.Warn().Err(err).Str("procedure_code", procedureCode).Msg("failed to cache rule")
			}
		}
	}()

	return rule, nil
}

// Create creates a new rule and invalidates the cached entry for its code
func (a *CachedRuleAdapter) Create(ctx context.Context, rule *entities.PortValidationRule) error {
	if err := a.adapter.Create(ctx, rule); err != nil {
		return err
	}
	a.invalidate(rule.ProcedureCode)
	return nil
}

// Update updates an existing rule and invalidates the cached entry for its code
func (a *CachedRuleAdapter) Update(ctx context.Context, rule *entities.PortValidationRule) error {
	if err := a.adapter.Update(ctx, rule); err != nil {
		return err
	}
	a.invalidate(rule.ProcedureCode)
	return nil
}

// List retrieves all rules, bypassing the cache
func (a *CachedRuleAdapter) List(ctx context.Context, limit, offset int) ([]*entities.PortValidationRule, error) {
	return a.adapter.List(ctx, limit, offset)
}

func (a *CachedRuleAdapter) invalidate(procedureCode string) {
	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, ruleCacheKey(procedureCode)); err != nil {
			log.Warn().Err(err).Str("procedure_code", procedureCode).Msg("failed to invalidate rule cache")
		}
	}()
}
