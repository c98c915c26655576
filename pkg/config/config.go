package config

import (
	"sync"

	"github.com/ninja0404/defi-reputation/pkg/config/reader"
	"github.com/ninja0404/defi-reputation/pkg/config/reader/json"
	"github.com/ninja0404/defi-reputation/pkg/config/source"
)

// Config 配置管理入口，聚合多个配置源并提供统一读取视图
type Config interface {
	// Load 加载配置源
	Load(source ...source.Source) error
	// Scan 将当前配置反序列化到结构体
	Scan(v interface{}) error
	// Get 按路径获取配置值
	Get(path ...string) reader.Value
	// Bytes 当前合并后的配置内容
	Bytes() []byte
	// Close 停止所有watcher
	Close() error
}

type config struct {
	opts Options

	sync.RWMutex
	sources  []source.Source
	sets     []*source.ChangeSet
	vals     reader.Values
	watchers []source.Watcher
	exit     chan bool
}

var defaultConfig Config = NewConfig()

func NewConfig(opts ...Option) Config {
	options := Options{
		Reader: json.NewReader(),
	}
	for _, o := range opts {
		o(&options)
	}

	return &config{
		opts: options,
		exit: make(chan bool),
	}
}

func (c *config) Load(sources ...source.Source) error {
	for _, s := range sources {
		set, err := s.Read()
		if err != nil {
			return err
		}

		c.Lock()
		c.sources = append(c.sources, s)
		c.sets = append(c.sets, set)
		idx := len(c.sets) - 1
		c.Unlock()

		if err := c.reload(); err != nil {
			return err
		}

		// 配置源支持watch时，后台监听变更并热更新
		w, err := s.Watch()
		if err != nil {
			continue
		}
		c.Lock()
		c.watchers = append(c.watchers, w)
		c.Unlock()

		go c.watch(idx, w)
	}
	return nil
}

func (c *config) watch(idx int, w source.Watcher) {
	for {
		set, err := w.Next()
		if err != nil {
			return
		}

		c.Lock()
		c.sets[idx] = set
		c.Unlock()

		if err := c.reload(); err != nil {
			return
		}
	}
}

// reload 重新合并全部changeset并刷新values
func (c *config) reload() error {
	c.Lock()
	defer c.Unlock()

	merged, err := c.opts.Reader.Merge(c.sets...)
	if err != nil {
		return err
	}

	vals, err := c.opts.Reader.Values(merged)
	if err != nil {
		return err
	}
	c.vals = vals
	return nil
}

func (c *config) Scan(v interface{}) error {
	c.RLock()
	defer c.RUnlock()
	if c.vals == nil {
		return nil
	}
	return c.vals.Scan(v)
}

func (c *config) Get(path ...string) reader.Value {
	c.RLock()
	defer c.RUnlock()
	return c.vals.Get(path...)
}

func (c *config) Bytes() []byte {
	c.RLock()
	defer c.RUnlock()
	if c.vals == nil {
		return nil
	}
	return c.vals.Bytes()
}

func (c *config) Close() error {
	select {
	case <-c.exit:
		return nil
	default:
		close(c.exit)
	}

	c.Lock()
	defer c.Unlock()
	for _, w := range c.watchers {
		_ = w.Stop()
	}
	return nil
}

// Load 使用默认配置实例加载配置源
func Load(sources ...source.Source) error {
	return defaultConfig.Load(sources...)
}

// Scan 使用默认配置实例反序列化配置
func Scan(v interface{}) error {
	return defaultConfig.Scan(v)
}

// Get 使用默认配置实例获取配置值
func Get(path ...string) reader.Value {
	return defaultConfig.Get(path...)
}

// Close 关闭默认配置实例
func Close() error {
	return defaultConfig.Close()
}
