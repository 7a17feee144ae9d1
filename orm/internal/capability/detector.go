package capability

import (
	"context"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Probe 探测一次能力
// error 为 nil 代表这是一个确定的答案，会被缓存下来
// error 不为 nil 代表探测本身失败了（网络、超时等），本次按不支持处理，但是不缓存
type Probe func(ctx context.Context) (bool, error)

// Detector 按连接标识缓存探测结果
// 同一个 key 只会被写入一次，之后只读，直到 Reset
type Detector struct {
	flags *cache.Cache
	group singleflight.Group
}

func NewDetector() *Detector {
	return &Detector{
		// 不过期，也不需要后台清理
		flags: cache.New(cache.NoExpiration, 0),
	}
}

// Supported 返回 key 对应的能力，第一次调用的时候执行 probe
// 并发的第一次调用共享同一次 probe
func (d *Detector) Supported(ctx context.Context, key string, probe Probe) bool {
	if v, ok := d.Known(key); ok {
		return v
	}

	v, _, _ := d.group.Do(key, func() (any, error) {
		if v, ok := d.Known(key); ok {
			return v, nil
		}
		supported, err := probe(ctx)
		if err != nil {
			return false, nil
		}
		// Add 只在 key 不存在的时候成功，先写入的为准
		if err = d.flags.Add(key, supported, cache.NoExpiration); err != nil {
			v, _ := d.Known(key)
			return v, nil
		}
		return supported, nil
	})
	return v.(bool)
}

// Known 返回已经缓存的结果，第二个返回值代表是否已经探测过
func (d *Detector) Known(key string) (bool, bool) {
	v, ok := d.flags.Get(key)
	if !ok {
		return false, false
	}
	return v.(bool), true
}

// Reset 丢弃 key 的探测结果，下一次使用的时候重新探测
func (d *Detector) Reset(key string) {
	d.flags.Delete(key)
	d.group.Forget(key)
}
