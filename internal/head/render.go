package head

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/iancoleman/orderedmap"
	"github.com/sirupsen/logrus"
)

// resolvedAsset 记录单个资源在本次渲染中的文件路径与（可能延迟计算的）URL。
type resolvedAsset struct {
	name string
	skin bool
	file string
	url  string
}

// RenderAssetGroup 将静态与皮肤资源渲染为 format 描述的 HTML 元素。
//
// format 以 fmt 形式接收 URL 与属性参数，例如 `<script src="%s"%s></script>`。
// 传入 merger 时每个参数分组尝试合并为一个元素，合并失败则逐个输出带哈希的 URL。
func (h *Hasher) RenderAssetGroup(ctx context.Context, req Request, format string, static, skin *Groups, merger Merger) string {
	rows := orderedmap.New()
	appendRow := func(params string, asset resolvedAsset) {
		var list []resolvedAsset
		if value, ok := rows.Get(params); ok {
			list = value.([]resolvedAsset)
		}
		rows.Set(params, append(list, asset))
	}

	for _, params := range static.Params() {
		for _, name := range static.Names(params) {
			asset := resolvedAsset{name: name}
			if merger != nil {
				asset.file = h.staticFile(name)
			} else {
				asset.url = h.HashStatic(ctx, req, name)
			}
			appendRow(params, asset)
		}
	}

	for _, params := range skin.Params() {
		for _, name := range skin.Names(params) {
			asset := resolvedAsset{name: name, skin: true}
			if merger != nil {
				file, err := h.theme.Filename(strings.Trim(name, "/"), FileSkin)
				if err != nil {
					h.logger.WithError(err).WithField("name", name).Warn("skin file lookup failed")
				}
				asset.file = file
			} else {
				asset.url = h.HashSkin(ctx, req, name)
			}
			appendRow(params, asset)
		}
	}

	var out strings.Builder
	for _, params := range rows.Keys() {
		value, _ := rows.Get(params)
		assets := value.([]resolvedAsset)
		attrs := formatParams(params)

		if merger != nil {
			if mergedURL := h.merge(ctx, req, merger, assets); mergedURL != "" {
				fmt.Fprintf(&out, format, html.EscapeString(mergedURL), attrs)
				continue
			}
		}

		for _, asset := range assets {
			url := asset.url
			if url == "" {
				url = h.hashAsset(ctx, req, asset)
			}
			fmt.Fprintf(&out, format, html.EscapeString(url), attrs)
		}
	}
	return out.String()
}

// merge 调用 merger 并对产物 URL 追加哈希，失败时返回空串以触发逐个渲染。
func (h *Hasher) merge(ctx context.Context, req Request, merger Merger, assets []resolvedAsset) string {
	files := make([]string, 0, len(assets))
	for _, asset := range assets {
		files = append(files, asset.file)
	}

	mergedURL, err := merger.Merge(ctx, files, isSecure(req))
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"action": "asset_merge",
			"kind":   string(merger.Kind()),
			"files":  len(files),
		}).Warn("merge failed, rendering individual assets")
		return ""
	}
	if mergedURL == "" {
		return ""
	}
	return h.HashMerged(ctx, req, mergedURL, files, merger.Kind())
}

func (h *Hasher) hashAsset(ctx context.Context, req Request, asset resolvedAsset) string {
	if asset.skin {
		return h.HashSkin(ctx, req, asset.name)
	}
	return h.HashStatic(ctx, req, asset.name)
}

func formatParams(params string) string {
	params = strings.TrimSpace(params)
	if params == "" {
		return ""
	}
	return " " + params
}
