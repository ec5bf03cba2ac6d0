package head

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/iancoleman/orderedmap"
)

// ItemType 描述 head 中一个条目的来源与渲染方式。
type ItemType string

const (
	ItemJS      ItemType = "js"
	ItemJSCSS   ItemType = "js_css"
	ItemSkinJS  ItemType = "skin_js"
	ItemSkinCSS ItemType = "skin_css"
	ItemRSS     ItemType = "rss"
	ItemLinkRel ItemType = "link_rel"
)

// Valid 表示 t 是否为已知类型。
func (t ItemType) Valid() bool {
	switch t {
	case ItemJS, ItemJSCSS, ItemSkinJS, ItemSkinCSS, ItemRSS, ItemLinkRel:
		return true
	}
	return false
}

const (
	StylesheetFormat = `<link rel="stylesheet" type="text/css" href="%s"%s />` + "\n"
	ScriptFormat     = `<script type="text/javascript" src="%s"%s></script>` + "\n"
	rssFormat        = `<link href="%s"%s rel="alternate" type="application/rss+xml" />`
	linkRelFormat    = `<link%s href="%s" />`
)

// Item 是一个 head 条目。If 为 IE 条件注释表达式，Cond 为需要开启的 Block 标志名。
type Item struct {
	Type   ItemType
	Name   string
	Params string
	If     string
	Cond   string
}

// BlockOptions 注入合并器；为空时对应类型不合并。
type BlockOptions struct {
	Scripts Merger
	Styles  Merger
}

// Block 收集 head 条目并渲染为 HTML，条目按 type/name 去重且保持首次插入顺序。
type Block struct {
	hasher *Hasher
	opts   BlockOptions
	items  *orderedmap.OrderedMap
	flags  map[string]bool
}

// NewBlock 构造绑定 hasher 的 head Block。
func NewBlock(hasher *Hasher, opts BlockOptions) *Block {
	return &Block{
		hasher: hasher,
		opts:   opts,
		items:  orderedmap.New(),
		flags:  make(map[string]bool),
	}
}

// AddItem 添加或替换条目，替换时保留原有位置。
func (b *Block) AddItem(item Item) {
	b.items.Set(itemKey(item.Type, item.Name), item)
}

// AddJs 添加 js 目录下的脚本。
func (b *Block) AddJs(name, params string) {
	b.AddItem(Item{Type: ItemJS, Name: name, Params: params})
}

// AddCss 添加皮肤样式表。
func (b *Block) AddCss(name, params string) {
	b.AddItem(Item{Type: ItemSkinCSS, Name: name, Params: params})
}

// RemoveItem 删除条目。
func (b *Block) RemoveItem(typ ItemType, name string) {
	b.items.Delete(itemKey(typ, name))
}

// SetFlag 设置 Cond 引用的标志。
func (b *Block) SetFlag(name string, on bool) {
	b.flags[name] = on
}

// Items 按顺序返回全部条目。
func (b *Block) Items() []Item {
	keys := b.items.Keys()
	result := make([]Item, 0, len(keys))
	for _, key := range keys {
		value, _ := b.items.Get(key)
		result = append(result, value.(Item))
	}
	return result
}

// line 汇总同一条件注释下的条目。
type line struct {
	js, jsCSS, skinJS, skinCSS *Groups
	other                      []string
}

func newLine() *line {
	return &line{jsCSS: NewGroups(), skinCSS: NewGroups(), js: NewGroups(), skinJS: NewGroups()}
}

func (l *line) empty() bool {
	return l.js.Len() == 0 && l.jsCSS.Len() == 0 && l.skinJS.Len() == 0 && l.skinCSS.Len() == 0 && len(l.other) == 0
}

// HTML 渲染样式表、脚本与其它元素，并按条件注释分段包裹。
func (b *Block) HTML(ctx context.Context, req Request) string {
	lines := orderedmap.New()
	for _, item := range b.Items() {
		if item.Name == "" {
			continue
		}
		if item.Cond != "" && !b.flags[item.Cond] {
			continue
		}

		var current *line
		if value, ok := lines.Get(item.If); ok {
			current = value.(*line)
		} else {
			current = newLine()
			lines.Set(item.If, current)
		}

		switch item.Type {
		case ItemJS:
			current.js.Add(item.Params, item.Name)
		case ItemJSCSS:
			current.jsCSS.Add(item.Params, item.Name)
		case ItemSkinJS:
			current.skinJS.Add(item.Params, item.Name)
		case ItemSkinCSS:
			current.skinCSS.Add(item.Params, item.Name)
		case ItemRSS:
			current.other = append(current.other, fmt.Sprintf(rssFormat, html.EscapeString(item.Name), formatParams(item.Params)))
		case ItemLinkRel:
			current.other = append(current.other, fmt.Sprintf(linkRelFormat, formatParams(item.Params), html.EscapeString(item.Name)))
		}
	}

	var out strings.Builder
	for _, cond := range lines.Keys() {
		value, _ := lines.Get(cond)
		current := value.(*line)
		if current.empty() {
			continue
		}

		bangIE := strings.Contains(cond, "><!-->")
		if cond != "" {
			if bangIE {
				out.WriteString(cond + "\n")
			} else {
				out.WriteString("<!--[if " + cond + "]>\n")
			}
		}

		out.WriteString(b.hasher.RenderAssetGroup(ctx, req, StylesheetFormat, current.jsCSS, current.skinCSS, b.opts.Styles))
		out.WriteString(b.hasher.RenderAssetGroup(ctx, req, ScriptFormat, current.js, current.skinJS, b.opts.Scripts))
		if len(current.other) > 0 {
			out.WriteString(strings.Join(current.other, "\n") + "\n")
		}

		if cond != "" {
			if bangIE {
				out.WriteString("<!--<![endif]-->\n")
			} else {
				out.WriteString("<![endif]-->\n")
			}
		}
	}
	return out.String()
}

func itemKey(typ ItemType, name string) string {
	return string(typ) + "/" + name
}
