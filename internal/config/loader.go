package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	for i := range cfg.Pages {
		applyPageDefaults(&cfg.Pages[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := absolutizePaths(&cfg.Global); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 8080)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "json")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("BaseDir", ".")
	v.SetDefault("BaseURL", "http://localhost:8080/")
	v.SetDefault("HashMethod", "version")
	v.SetDefault("CacheEnabled", true)
	v.SetDefault("CacheBackend", "file")
	v.SetDefault("StoragePath", "./storage/cache")
	v.SetDefault("MemoryCacheEntries", 4096)
	v.SetDefault("RedisDialTimeout", "5s")
	v.SetDefault("DesignArea", "frontend")
	v.SetDefault("DesignPackage", "default")
	v.SetDefault("DesignTheme", "default")
	v.SetDefault("MergeJS", false)
	v.SetDefault("MergeCSS", false)
	v.SetDefault("MinifyMerged", true)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 8080
	}
	g.HashMethod = strings.ToLower(strings.TrimSpace(g.HashMethod))
	if g.HashMethod == "" {
		g.HashMethod = "version"
	}
	g.CacheBackend = strings.ToLower(strings.TrimSpace(g.CacheBackend))
	if g.CacheBackend == "" {
		g.CacheBackend = "file"
	}
	g.BaseURL = withTrailingSlash(strings.TrimSpace(g.BaseURL))
	if strings.TrimSpace(g.SecureBaseURL) == "" {
		g.SecureBaseURL = g.BaseURL
	} else {
		g.SecureBaseURL = withTrailingSlash(strings.TrimSpace(g.SecureBaseURL))
	}
	if g.RedisDialTimeout.DurationValue() <= 0 {
		g.RedisDialTimeout = Duration(5 * time.Second)
	}
}

func applyPageDefaults(p *PageConfig) {
	p.Path = strings.TrimSpace(p.Path)
	for i := range p.Items {
		item := &p.Items[i]
		item.Type = strings.ToLower(strings.TrimSpace(item.Type))
		item.Name = strings.TrimSpace(item.Name)
		item.Params = strings.TrimSpace(item.Params)
	}
}

func absolutizePaths(g *GlobalConfig) error {
	absBase, err := filepath.Abs(g.BaseDir)
	if err != nil {
		return fmt.Errorf("无法解析站点目录: %w", err)
	}
	g.BaseDir = absBase

	if g.StoragePath != "" {
		absStorage, err := filepath.Abs(g.StoragePath)
		if err != nil {
			return fmt.Errorf("无法解析缓存目录: %w", err)
		}
		g.StoragePath = absStorage
	}
	return nil
}

func withTrailingSlash(raw string) string {
	if raw == "" || strings.HasSuffix(raw, "/") {
		return raw
	}
	return raw + "/"
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
