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

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/log"
	"github.com/spf13/viper"
)

// The following keys can be access from the root configuration.
// Components are responsible for defining their own keys using the Prefix interface
var (
	Lang                     RootKey = ark("lang")
	LogLevel                 RootKey = ark("log.level")
	LogColor                 RootKey = ark("log.color")
	LogUTC                   RootKey = ark("log.utc")
	CorsEnabled              RootKey = ark("cors.enabled")
	CorsAllowedOrigins       RootKey = ark("cors.origins")
	CorsAllowedMethods       RootKey = ark("cors.methods")
	CorsAllowedHeaders       RootKey = ark("cors.headers")
	CorsAllowCredentials     RootKey = ark("cors.credentials")
	CorsMaxAge               RootKey = ark("cors.maxAge")
	CorsDebug                RootKey = ark("cors.debug")
	MetricsEnabled           RootKey = ark("metrics.enabled")
	MetricsPath              RootKey = ark("metrics.path")
	ServiceDocumentationURI  RootKey = ark("service.documentationURI")
	ServiceVersion           RootKey = ark("service.version")
	ServiceNoContentCodes    RootKey = ark("service.noContentCodes")
	NodesDefault             RootKey = ark("nodes.default")
	NodesRegistry            RootKey = ark("nodes.registry")
	NodesRoutingPath         RootKey = ark("nodes.routingPath")
	FederatorRouting         RootKey = ark("federator.routing")
	FederatorFetchCommand    RootKey = ark("federator.fetch.command")
	FederatorFetchArgs       RootKey = ark("federator.fetch.args")
	FederatorFetchTimeout    RootKey = ark("federator.fetch.timeout")
	FederatorTempDir         RootKey = ark("federator.tempDir")
	FederatorPostMaxSize     RootKey = ark("federator.post.maxSize")
	FederatorGetMaxURILength RootKey = ark("federator.get.maxURILength")
	StationliteDatabaseType  RootKey = ark("stationlite.database.type")
	StationliteCacheSize     RootKey = ark("stationlite.cache.size")
	StationliteCacheTTL      RootKey = ark("stationlite.cache.ttl")
	StationlitePostMaxSize   RootKey = ark("stationlite.post.maxSize")
)

// Prefix represents the global configuration, at a nested point in
// the config hierarchy. This allows components to define their own keys.
//
// Note that all values are GLOBAL so this cannot be used for per-instance
// customization. Rather for global initialization of components.
type Prefix interface {
	AddKnownKey(key string, defValue ...interface{})
	SubPrefix(suffix string) Prefix
	Set(key string, value interface{})
	Resolve(key string) string

	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetUint(key string) uint
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetDuration(key string) time.Duration
	GetByteSize(key string) int64
	GetStringSlice(key string) []string
	GetStringMap(key string) map[string]interface{}
	UnmarshalKey(ctx context.Context, key string, rawVal interface{}) error
	Get(key string) interface{}
}

// RootKey key are the known configuration keys
type RootKey string

// Reset clears viper and re-applies all defaults
func Reset() {
	viper.Reset()

	// Set defaults
	viper.SetDefault(string(Lang), "en")
	viper.SetDefault(string(LogLevel), "info")
	viper.SetDefault(string(LogColor), true)
	viper.SetDefault(string(LogUTC), false)
	viper.SetDefault(string(CorsEnabled), true)
	viper.SetDefault(string(CorsAllowedOrigins), []string{"*"})
	viper.SetDefault(string(CorsAllowedMethods), []string{http.MethodGet, http.MethodPost})
	viper.SetDefault(string(CorsAllowedHeaders), []string{"*"})
	viper.SetDefault(string(CorsAllowCredentials), true)
	viper.SetDefault(string(CorsMaxAge), 600)
	viper.SetDefault(string(MetricsEnabled), false)
	viper.SetDefault(string(MetricsPath), "/metrics")
	viper.SetDefault(string(ServiceDocumentationURI), "http://www.fdsn.org/webservices/")
	viper.SetDefault(string(ServiceVersion), "0.9.1")
	viper.SetDefault(string(ServiceNoContentCodes), []int{204, 404})
	viper.SetDefault(string(NodesDefault), "GFZ")
	viper.SetDefault(string(NodesRoutingPath), "/eidaws/routing/1/query")
	viper.SetDefault(string(FederatorRouting), "GFZ")
	viper.SetDefault(string(FederatorFetchCommand), "fdsnws_fetch")
	viper.SetDefault(string(FederatorFetchArgs), []string{})
	viper.SetDefault(string(FederatorFetchTimeout), "10m")
	viper.SetDefault(string(FederatorTempDir), os.TempDir())
	viper.SetDefault(string(FederatorPostMaxSize), "5MB")
	viper.SetDefault(string(FederatorGetMaxURILength), 8192)
	viper.SetDefault(string(StationliteDatabaseType), "sqlite")
	viper.SetDefault(string(StationliteCacheSize), "1MB")
	viper.SetDefault(string(StationliteCacheTTL), "5m")
	viper.SetDefault(string(StationlitePostMaxSize), "5MB")

	for k, v := range keyDefaults {
		viper.SetDefault(k, v)
	}

	i18n.SetLang(GetString(Lang))
}

// ReadConfig initializes the config
func ReadConfig(cfgFile string) error {
	Reset()

	// Set precedence order for reading config location
	viper.SetEnvPrefix("eidangws")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.SetConfigType("yaml")
	if cfgFile != "" {
		f, err := os.Open(cfgFile)
		if err == nil {
			defer f.Close()
			err = viper.ReadConfig(f)
		}
		return err
	}
	viper.SetConfigName("eidangws")
	viper.AddConfigPath("/etc/eidangws/")
	viper.AddConfigPath("$HOME/.eidangws")
	viper.AddConfigPath(".")
	return viper.ReadInConfig()
}

// SetupLogging initializes logging from the loaded configuration
func SetupLogging(ctx context.Context) {
	log.SetFormatting(log.Formatting{
		DisableColor: !GetBool(LogColor),
		UTC:          GetBool(LogUTC),
	})
	log.SetLevel(GetString(LogLevel))
	log.L(ctx).Debugf("Log level: %s", GetString(LogLevel))
}

var root = &configPrefix{
	keys: map[string]bool{}, // All keys go here, including those defined in sub prefixies
}

// keyDefaults survive Reset(), so components can register their keys at package init
var keyDefaults = map[string]interface{}{}

// ark adds a root key, used to define the keys that are used within the core
func ark(k string) RootKey {
	root.AddKnownKey(k)
	return RootKey(k)
}

// configPrefix is the main config structure passed to components, and used for root to wrap viper
type configPrefix struct {
	prefix string
	keys   map[string]bool
}

// NewPluginConfig creates a new configuration object, at the specified prefix
func NewPluginConfig(prefix string) Prefix {
	if !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	return &configPrefix{
		prefix: prefix,
		keys:   root.keys,
	}
}

func (c *configPrefix) prefixKey(k string) string {
	key := c.prefix + k
	if !c.keys[key] {
		panic(fmt.Sprintf("Undefined configuration key '%s'", key))
	}
	return key
}

func (c *configPrefix) Resolve(key string) string {
	return c.prefixKey(key)
}

func (c *configPrefix) SubPrefix(suffix string) Prefix {
	return &configPrefix{
		prefix: c.prefix + suffix + ".",
		keys:   root.keys,
	}
}

func (c *configPrefix) AddKnownKey(k string, defValue ...interface{}) {
	key := c.prefix + k
	if len(defValue) == 1 {
		keyDefaults[key] = defValue[0]
		viper.SetDefault(key, defValue[0])
	} else if len(defValue) > 0 {
		keyDefaults[key] = defValue
		viper.SetDefault(key, defValue)
	}
	c.keys[key] = true
}

// GetString gets a configuration string
func GetString(key RootKey) string {
	return root.GetString(string(key))
}
func (c *configPrefix) GetString(key string) string {
	return viper.GetString(c.prefixKey(key))
}

// GetStringSlice gets a configuration string array
func GetStringSlice(key RootKey) []string {
	return root.GetStringSlice(string(key))
}
func (c *configPrefix) GetStringSlice(key string) []string {
	return viper.GetStringSlice(c.prefixKey(key))
}

// GetIntSlice gets a configuration int array
func GetIntSlice(key RootKey) []int {
	return viper.GetIntSlice(root.prefixKey(string(key)))
}

// GetBool gets a configuration bool
func GetBool(key RootKey) bool {
	return root.GetBool(string(key))
}
func (c *configPrefix) GetBool(key string) bool {
	return viper.GetBool(c.prefixKey(key))
}

// GetDuration gets a configuration time duration with consistent semantics
func GetDuration(key RootKey) time.Duration {
	return root.GetDuration(string(key))
}
func (c *configPrefix) GetDuration(key string) time.Duration {
	return viper.GetDuration(c.prefixKey(key))
}

// GetByteSize gets a configuration size, such as "5MB", in bytes. Zero if unset or invalid
func GetByteSize(key RootKey) int64 {
	return root.GetByteSize(string(key))
}
func (c *configPrefix) GetByteSize(key string) int64 {
	sizeString := viper.GetString(c.prefixKey(key))
	if sizeString == "" {
		return 0
	}
	size, err := units.RAMInBytes(sizeString)
	if err != nil {
		log.L(context.Background()).Warnf("%s", i18n.Expand(context.Background(), i18n.MsgInvalidByteSize, sizeString, c.prefix+key))
		return 0
	}
	return size
}

// GetUint gets a configuration uint
func GetUint(key RootKey) uint {
	return root.GetUint(string(key))
}
func (c *configPrefix) GetUint(key string) uint {
	return viper.GetUint(c.prefixKey(key))
}

// GetInt gets a configuration int
func GetInt(key RootKey) int {
	return root.GetInt(string(key))
}
func (c *configPrefix) GetInt(key string) int {
	return viper.GetInt(c.prefixKey(key))
}

// GetInt64 gets a configuration int64
func GetInt64(key RootKey) int64 {
	return root.GetInt64(string(key))
}
func (c *configPrefix) GetInt64(key string) int64 {
	return viper.GetInt64(c.prefixKey(key))
}

// GetFloat64 gets a configuration float64
func GetFloat64(key RootKey) float64 {
	return root.GetFloat64(string(key))
}
func (c *configPrefix) GetFloat64(key string) float64 {
	return viper.GetFloat64(c.prefixKey(key))
}

// GetStringMap gets a configuration map
func GetStringMap(key RootKey) map[string]interface{} {
	return root.GetStringMap(string(key))
}
func (c *configPrefix) GetStringMap(key string) map[string]interface{} {
	return viper.GetStringMap(c.prefixKey(key))
}

// Get gets a configuration in raw form
func Get(key RootKey) interface{} {
	return root.Get(string(key))
}
func (c *configPrefix) Get(key string) interface{} {
	return viper.Get(c.prefixKey(key))
}

// Set allows runtime setting of config (used in unit tests)
func Set(key RootKey, value interface{}) {
	root.Set(string(key), value)
}
func (c *configPrefix) Set(key string, value interface{}) {
	viper.Set(c.prefixKey(key), value)
}

// UnmarshalKey gets a configuration section into a struct
func UnmarshalKey(ctx context.Context, key RootKey, rawVal interface{}) error {
	return root.UnmarshalKey(ctx, string(key), rawVal)
}
func (c *configPrefix) UnmarshalKey(ctx context.Context, key string, rawVal interface{}) error {
	// Viper's unmarshal does not work with our json annotated config
	// structures, so we have to go from map to JSON, then to unmarshal
	var intermediate map[string]interface{}
	err := viper.UnmarshalKey(c.prefixKey(key), &intermediate)
	if err == nil {
		b, _ := json.Marshal(intermediate)
		err = json.Unmarshal(b, rawVal)
	}
	if err != nil {
		return i18n.WrapError(ctx, err, i18n.MsgConfigFailed, key)
	}
	return nil
}

// AllSettings returns the merged configuration, for display
func AllSettings() map[string]interface{} {
	return viper.AllSettings()
}
