package provider

import (
	"fmt"
)

// Registry 提供商注册表，遍历顺序与注册顺序一致
type Registry struct {
	clients []Client
	index   map[string]Client
}

// NewRegistry 创建注册表
func NewRegistry(clients ...Client) (*Registry, error) {
	r := &Registry{index: make(map[string]Client, len(clients))}
	for _, c := range clients {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register 注册提供商，名称重复时报错
func (r *Registry) Register(c Client) error {
	name := c.Info().Name
	if name == "" {
		return fmt.Errorf("provider name is required")
	}
	if _, ok := r.index[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, name)
	}
	r.index[name] = c
	r.clients = append(r.clients, c)
	return nil
}

// Get 根据名称获取提供商
func (r *Registry) Get(name string) (Client, error) {
	c, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return c, nil
}

// Clients 按注册顺序返回全部提供商
func (r *Registry) Clients() []Client {
	out := make([]Client, len(r.clients))
	copy(out, r.clients)
	return out
}

// Names 按注册顺序返回全部提供商名称
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for _, c := range r.clients {
		names = append(names, c.Info().Name)
	}
	return names
}

// Len 提供商数量
func (r *Registry) Len() int {
	return len(r.clients)
}
