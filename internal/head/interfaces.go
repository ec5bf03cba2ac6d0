package head

import "context"

// AssetKind 标识合并产物的资源类型，决定 media 子目录与扩展名。
type AssetKind string

const (
	KindScript     AssetKind = "js"
	KindStylesheet AssetKind = "css"
)

// LocationKind 描述站点中的公共 URL / 目录根。
type LocationKind string

const (
	LocationRoot  LocationKind = "root"
	LocationWeb   LocationKind = "web"
	LocationJS    LocationKind = "js"
	LocationSkin  LocationKind = "skin"
	LocationMedia LocationKind = "media"
)

// FileKind 是 ThemeResolver 查找文件时使用的类型。
type FileKind string

const FileSkin FileKind = "skin"

// Request 暴露当前请求是否经由安全连接到达。
type Request interface {
	IsSecure() bool
}

// SecureRequest 将布尔值适配为 Request，便于 CLI 与测试直接构造。
type SecureRequest bool

// IsSecure 实现 Request。
func (r SecureRequest) IsSecure() bool {
	return bool(r)
}

// ThemeResolver 根据当前主题配置定位皮肤资源。
type ThemeResolver interface {
	// Filename 返回资源的绝对文件路径，文件不存在时也返回最终候选路径。
	Filename(name string, kind FileKind) (string, error)
	// SkinURL 返回资源的公共 URL。
	SkinURL(name string, secure bool) (string, error)
}

// Locations 提供站点各类资源的基础 URL 与基础目录。
type Locations interface {
	BaseURL(kind LocationKind, secure bool) string
	BaseDir(kind LocationKind) string
}

// Merger 将一组文件合并为一个派生文件并返回其 URL，Kind 显式声明产物类型。
type Merger interface {
	Merge(ctx context.Context, files []string, secure bool) (string, error)
	Kind() AssetKind
}

// MergerFunc 将普通函数适配为指定类型的 Merger。
type MergerFunc struct {
	AssetKind AssetKind
	Fn        func(ctx context.Context, files []string, secure bool) (string, error)
}

// Merge 调用包装的函数。
func (m MergerFunc) Merge(ctx context.Context, files []string, secure bool) (string, error) {
	return m.Fn(ctx, files, secure)
}

// Kind 返回声明的产物类型。
func (m MergerFunc) Kind() AssetKind {
	return m.AssetKind
}

func isSecure(req Request) bool {
	return req != nil && req.IsSecure()
}
