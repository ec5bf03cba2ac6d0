package head

import "github.com/iancoleman/orderedmap"

// Groups 将属性参数字符串映射到有序且去重的资源名列表，保留参数首次出现的顺序。
type Groups struct {
	m *orderedmap.OrderedMap
}

// NewGroups 创建空分组。
func NewGroups() *Groups {
	return &Groups{m: orderedmap.New()}
}

// Add 将 name 追加到 params 分组；同一分组内重复的 name 会被忽略。
func (g *Groups) Add(params, name string) {
	names := g.Names(params)
	for _, existing := range names {
		if existing == name {
			return
		}
	}
	g.m.Set(params, append(names, name))
}

// Params 按插入顺序返回所有参数字符串。
func (g *Groups) Params() []string {
	if g == nil || g.m == nil {
		return nil
	}
	return g.m.Keys()
}

// Names 返回 params 分组下的资源名。
func (g *Groups) Names(params string) []string {
	if g == nil || g.m == nil {
		return nil
	}
	value, ok := g.m.Get(params)
	if !ok {
		return nil
	}
	names, _ := value.([]string)
	return names
}

// Len 返回分组数量。
func (g *Groups) Len() int {
	return len(g.Params())
}
