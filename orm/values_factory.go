package orm

import (
	"strconv"
	"strings"

	"github.com/coderi421/kyuu-qv/orm/internal/errs"
	"github.com/coderi421/kyuu-qv/orm/internal/payload"
	lru "github.com/hashicorp/golang-lru"
	"github.com/zeebo/xxh3"
)

// valuesStrategy 某个数据库上，某种序列化格式对应的虚拟表写法
type valuesStrategy interface {
	format() payload.Format
	options() payload.Options
	// render 生成虚拟表的 SQL 模板，参数的位置用 slot 占住
	render(tb *templateBuilder, d Dialect, s *payload.Schema, withTop bool)
}

type slot uint8

const (
	slotPayload slot = iota
	slotCount
)

// valuesTemplate 渲染好的 SQL 片段
// parts 比 slots 多一个，parts[i] 之后紧跟着 slots[i]
type valuesTemplate struct {
	parts []string
	slots []slot
}

type templateBuilder struct {
	sb  strings.Builder
	tpl valuesTemplate
}

func (tb *templateBuilder) write(s string) {
	tb.sb.WriteString(s)
}

func (tb *templateBuilder) writeByte(c byte) {
	tb.sb.WriteByte(c)
}

func (tb *templateBuilder) slot(s slot) {
	tb.tpl.parts = append(tb.tpl.parts, tb.sb.String())
	tb.tpl.slots = append(tb.tpl.slots, s)
	tb.sb.Reset()
}

func (tb *templateBuilder) build() *valuesTemplate {
	tb.tpl.parts = append(tb.tpl.parts, tb.sb.String())
	return &tb.tpl
}

const defaultTemplateCacheSize = 256

// templateCache 同一个形状（方言，格式，TOP，Schema）的模板只渲染一次
type templateCache struct {
	cache *lru.Cache
}

type templateEntry struct {
	key string
	tpl *valuesTemplate
}

func newTemplateCache(size int) *templateCache {
	if size <= 0 {
		size = defaultTemplateCacheSize
	}
	// size > 0 的时候不会出错
	c, _ := lru.New(size)
	return &templateCache{cache: c}
}

func (c *templateCache) get(d Dialect, st valuesStrategy, s *payload.Schema, withTop bool) *valuesTemplate {
	key := d.name() + "|" + st.format().String() + "|" + strconv.FormatBool(withTop) + "|" + s.Signature()
	h := xxh3.HashString(key)
	if v, ok := c.cache.Get(h); ok {
		// 哈希冲突的时候重新渲染
		if e := v.(templateEntry); e.key == key {
			return e.tpl
		}
	}
	tb := &templateBuilder{}
	st.render(tb, d, s, withTop)
	tpl := tb.build()
	c.cache.Add(h, templateEntry{key: key, tpl: tpl})
	return tpl
}

// valuesTable 翻译之后的 queryable values
// 只属于一次查询，查询结束之后就丢弃
type valuesTable struct {
	valuesSource
	tpl     *valuesTemplate
	payload any
	count   int
}

// build 把模板和参数写到 builder 里面，不包括别名
func (t *valuesTable) build(b *builder) {
	for i, part := range t.tpl.parts {
		b.sb.WriteString(part)
		if i >= len(t.tpl.slots) {
			continue
		}
		switch t.tpl.slots[i] {
		case slotPayload:
			b.param(t.payload)
		case slotCount:
			b.param(t.count)
		}
	}
}

// newValuesTable 序列化数据，找到对应的模板
func newValuesTable(c core, src valuesSource, f payload.Format) (*valuesTable, error) {
	st, ok := c.dialect.valuesStrategy(f)
	if !ok {
		return nil, errs.NewErrUnsupportedSerialization(f.String(), c.dialect.name())
	}
	schema := src.valuesSchema()
	data, err := payload.Encode(f, schema, src.valuesRows(), st.options())
	if err != nil {
		return nil, err
	}
	return &valuesTable{
		valuesSource: src,
		tpl:          c.templates.get(c.dialect, st, schema, !c.values.suppressPrescan),
		payload:      c.dialect.payloadArg(data),
		count:        src.valuesLen(),
	}, nil
}
