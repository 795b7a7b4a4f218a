// Copyright © 2021 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/karlseguin/ccache"

	"github.com/eida/eidangws/internal/config"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/log"
)

// CConfig names the pair of configuration keys of a cache. Both keys must share a
// category, such as "stationlite.cache.size" and "stationlite.cache.ttl".
type CConfig struct {
	ctx               context.Context
	maxLimitConfigKey config.RootKey
	ttlConfigKey      config.RootKey
}

func NewCacheConfig(ctx context.Context, maxLimitConfigKey config.RootKey, ttlConfigKey config.RootKey) *CConfig {
	return &CConfig{
		ctx:               ctx,
		maxLimitConfigKey: maxLimitConfigKey,
		ttlConfigKey:      ttlConfigKey,
	}
}

func (cc *CConfig) Category() (string, error) {
	if cc.maxLimitConfigKey == "" {
		return "", i18n.NewError(cc.ctx, i18n.MsgCacheMissSizeLimitKey)
	}
	if cc.ttlConfigKey == "" {
		return "", i18n.NewError(cc.ctx, i18n.MsgCacheMissTTLKey)
	}

	sizeCategory, _ := parseConfigKeyString(string(cc.maxLimitConfigKey))
	ttlCategory, _ := parseConfigKeyString(string(cc.ttlConfigKey))
	if sizeCategory != ttlCategory {
		return "", i18n.NewError(cc.ctx, i18n.MsgCacheConfigKeyMismatch, cc.maxLimitConfigKey, cc.ttlConfigKey, sizeCategory, ttlCategory)
	}
	return sizeCategory, nil
}

func parseConfigKeyString(configKey string) (string, string) {
	keyParts := strings.Split(configKey, ".")
	categoryString := strings.Join(keyParts[:len(keyParts)-1], ".")
	configName := keyParts[len(keyParts)-1]
	return categoryString, configName
}

// MaxSize is a number of entries for a "limit" key, and a byte size for a "size" key.
// Byte sized caches expect values implementing ccache.Sized.
func (cc *CConfig) MaxSize() (int64, error) {
	_, sizeConfigName := parseConfigKeyString(string(cc.maxLimitConfigKey))
	switch sizeConfigName {
	case "limit":
		return config.GetInt64(cc.maxLimitConfigKey), nil
	case "size":
		return config.GetByteSize(cc.maxLimitConfigKey), nil
	default:
		return 0, i18n.NewError(cc.ctx, i18n.MsgCacheUnexpectedSizeKey, sizeConfigName)
	}
}

func (cc *CConfig) TTL() time.Duration {
	return config.GetDuration(cc.ttlConfigKey)
}

// CInterface is a single cache. A cache configured with a zero size or TTL is
// disabled, and never holds a value.
type CInterface interface {
	Get(key string) interface{}
	Set(key string, val interface{})
	Delete(key string) bool
	Clear()
	IsEnabled() bool
}

type Manager interface {
	GetCache(cc *CConfig) (CInterface, error)
	ListKeys() []string
}

type cacheManager struct {
	ctx    context.Context
	mux    sync.Mutex
	caches map[string]CInterface
}

func NewCacheManager(ctx context.Context) Manager {
	return &cacheManager{
		ctx:    ctx,
		caches: make(map[string]CInterface),
	}
}

func (cm *cacheManager) GetCache(cc *CConfig) (CInterface, error) {
	name, err := cc.Category()
	if err != nil {
		return nil, err
	}
	maxSize, err := cc.MaxSize()
	if err != nil {
		return nil, err
	}

	cm.mux.Lock()
	defer cm.mux.Unlock()
	if c, ok := cm.caches[name]; ok {
		return c, nil
	}
	c := &ccacheWrapper{
		name:    name,
		ttl:     cc.TTL(),
		enabled: maxSize > 0 && cc.TTL() > 0,
	}
	if c.enabled {
		c.cache = ccache.New(ccache.Configure().MaxSize(maxSize))
	}
	log.L(cm.ctx).Debugf("Cache '%s' enabled=%t maxSize=%d ttl=%s", name, c.enabled, maxSize, c.ttl)
	cm.caches[name] = c
	return c, nil
}

func (cm *cacheManager) ListKeys() []string {
	cm.mux.Lock()
	defer cm.mux.Unlock()
	keys := make([]string, 0, len(cm.caches))
	for k := range cm.caches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type ccacheWrapper struct {
	name    string
	cache   *ccache.Cache
	ttl     time.Duration
	enabled bool
}

func (c *ccacheWrapper) Get(key string) interface{} {
	if !c.enabled {
		return nil
	}
	if cached := c.cache.Get(key); cached != nil && !cached.Expired() {
		return cached.Value()
	}
	return nil
}

func (c *ccacheWrapper) Set(key string, val interface{}) {
	if c.enabled {
		c.cache.Set(key, val, c.ttl)
	}
}

func (c *ccacheWrapper) Delete(key string) bool {
	if !c.enabled {
		return false
	}
	return c.cache.Delete(key)
}

func (c *ccacheWrapper) Clear() {
	if c.enabled {
		c.cache.Clear()
	}
}

func (c *ccacheWrapper) IsEnabled() bool {
	return c.enabled
}
