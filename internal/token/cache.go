package token

import (
	"sync"

	"github.com/paaavkata/stock-dashboard/pkg/models"
)

// Cache holds the in-process copy of each provider's token.
type Cache interface {
	Get(provider string) (*models.TokenRecord, bool)
	Set(provider string, record *models.TokenRecord)
	Clear(provider string)
}

// MemoryCache is a process-local Cache. Each provider slot is replaced
// atomically; issuance is not coordinated.
type MemoryCache struct {
	records sync.Map
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(provider string) (*models.TokenRecord, bool) {
	v, ok := c.records.Load(provider)
	if !ok {
		return nil, false
	}
	return v.(*models.TokenRecord), true
}

func (c *MemoryCache) Set(provider string, record *models.TokenRecord) {
	if record == nil {
		c.records.Delete(provider)
		return
	}
	c.records.Store(provider, record)
}

func (c *MemoryCache) Clear(provider string) {
	c.records.Delete(provider)
}
