package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// AssetFields 提供缓存键/资源名/命中状态字段，供哈希计算日志复用。
func AssetFields(action, key, name string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"action":    action,
		"cache_key": key,
		"asset":     name,
		"cache_hit": cacheHit,
	}
}

// RequestFields 提供页面请求的路径/安全上下文/请求 ID 字段。
func RequestFields(path string, secure bool, requestID string) logrus.Fields {
	return logrus.Fields{
		"path":       path,
		"secure":     secure,
		"request_id": requestID,
	}
}
