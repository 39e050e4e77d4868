package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"habitd/internal/structures"
)

type silentLogger struct{}

func (silentLogger) Errorf(_ TypeEnum, _ string, _ ...interface{}) {}
func (silentLogger) Warnf(_ TypeEnum, _ string, _ ...interface{})  {}
func (silentLogger) Debugf(_ TypeEnum, _ string, _ ...interface{}) {}
func (silentLogger) Infof(_ TypeEnum, _ string, _ ...interface{})  {}
func (silentLogger) Fatalf(_ TypeEnum, _ string, _ ...interface{}) {}
func (silentLogger) Close()                                        {}

func cacheConf(enabled bool, size int) *structures.Config {
	conf := &structures.Config{}
	conf.Cache.Enabled = enabled
	conf.Cache.Size = size
	conf.Cache.TTL = time.Minute
	return conf
}

func TestCacheProviderSetGet(t *testing.T) {
	cache := NewCacheProvider(cacheConf(true, 1), silentLogger{})

	cache.Set("summary:7", []byte(`[]`))
	val, ok := cache.Get("summary:7")
	assert.True(t, ok)
	assert.Equal(t, []byte(`[]`), val)
}

func TestCacheProviderMiss(t *testing.T) {
	cache := NewCacheProvider(cacheConf(true, 1), silentLogger{})

	_, ok := cache.Get("missing")
	assert.False(t, ok)
}

func TestCacheProviderDisabled(t *testing.T) {
	cache := NewCacheProvider(cacheConf(false, 1), silentLogger{})

	cache.Set("key", []byte("value"))
	_, ok := cache.Get("key")
	assert.False(t, ok, "disabled cache never stores")
}
