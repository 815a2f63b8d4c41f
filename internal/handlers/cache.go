package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/cache"
)

type CacheHandler struct {
	CacheWarmer *cache.CacheWarmer
	Cache       cache.Cache
}

func NewCacheHandler(cacheWarmer *cache.CacheWarmer, cacheInstance cache.Cache) *CacheHandler {
	return &CacheHandler{
		CacheWarmer: cacheWarmer,
		Cache:       cacheInstance,
	}
}

// WarmCache triggers immediate cache warming.
// POST /cache/warm
func (h *CacheHandler) WarmCache(c *gin.Context) {
	if h.CacheWarmer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Cache warming not available",
			"message": "Cache warmer is not initialized",
		})
		return
	}

	warmed := h.CacheWarmer.WarmNow()
	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"keys_warmed": warmed,
	})
}

// EvictCacheKey evicts a specific cache key or pattern.
// DELETE /cache/keys/:key
func (h *CacheHandler) EvictCacheKey(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Key parameter is required"})
		return
	}

	if h.Cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Cache is not initialized"})
		return
	}

	if containsWildcard(key) {
		if err := h.Cache.DeletePattern(key); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evict cache pattern"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "pattern": key})
		return
	}

	if err := h.Cache.Delete(key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evict cache key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "key": key})
}

// GetCacheStats returns cache and warmer statistics.
// GET /cache/stats
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	stats := gin.H{}

	if h.Cache != nil {
		stats["cache"] = h.Cache.Stats()
	}
	if h.CacheWarmer != nil {
		stats["cache_warming"] = h.CacheWarmer.GetStats()
	}

	c.JSON(http.StatusOK, stats)
}

// GetCacheHealth reports whether the cache backend is reachable.
// GET /cache/health
func (h *CacheHandler) GetCacheHealth(c *gin.Context) {
	if h.Cache == nil {
		c.JSON(http.StatusOK, gin.H{"status": "unavailable", "healthy": false})
		return
	}

	if err := h.Cache.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"healthy": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "healthy", "healthy": true})
}

func containsWildcard(s string) bool {
	return len(s) > 0 && (s[len(s)-1] == '*' || s[0] == '*')
}
