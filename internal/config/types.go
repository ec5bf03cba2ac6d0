package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述站点、缓存与日志等全局参数，所有页面共享同一份。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFormat     string `mapstructure:"LogFormat"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`

	// BaseDir 是站点根目录，其下包含 js/、skin/、media/。
	BaseDir       string `mapstructure:"BaseDir"`
	BaseURL       string `mapstructure:"BaseURL"`
	SecureBaseURL string `mapstructure:"SecureBaseURL"`

	// HashMethod 取 version 或 query。
	HashMethod string `mapstructure:"HashMethod"`

	CacheEnabled       bool     `mapstructure:"CacheEnabled"`
	CacheBackend       string   `mapstructure:"CacheBackend"`
	StoragePath        string   `mapstructure:"StoragePath"`
	MemoryCacheEntries int      `mapstructure:"MemoryCacheEntries"`
	RedisAddr          string   `mapstructure:"RedisAddr"`
	RedisPassword      string   `mapstructure:"RedisPassword"`
	RedisDB            int      `mapstructure:"RedisDB"`
	RedisDialTimeout   Duration `mapstructure:"RedisDialTimeout"`

	DesignArea    string `mapstructure:"DesignArea"`
	DesignPackage string `mapstructure:"DesignPackage"`
	DesignTheme   string `mapstructure:"DesignTheme"`

	MergeJS      bool `mapstructure:"MergeJS"`
	MergeCSS     bool `mapstructure:"MergeCSS"`
	MinifyMerged bool `mapstructure:"MinifyMerged"`
}

// ItemConfig 对应页面 head 中的一个条目。
type ItemConfig struct {
	Type   string `mapstructure:"Type"`
	Name   string `mapstructure:"Name"`
	Params string `mapstructure:"Params"`
	If     string `mapstructure:"If"`
	Cond   string `mapstructure:"Cond"`
}

// PageConfig 描述一个可渲染页面：路径、标题、开启的标志与 head 条目。
type PageConfig struct {
	Path  string       `mapstructure:"Path"`
	Title string       `mapstructure:"Title"`
	Flags []string     `mapstructure:"Flags"`
	Items []ItemConfig `mapstructure:"Item"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Pages  []PageConfig `mapstructure:"Page"`
}

// PagePaths 返回所有页面路径，供日志与诊断输出。
func PagePaths(pages []PageConfig) []string {
	if len(pages) == 0 {
		return nil
	}
	result := make([]string, len(pages))
	for i, page := range pages {
		result[i] = page.Path
	}
	return result
}
