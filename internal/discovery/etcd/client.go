package etcd

import (
	"context"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

type Config struct {
	Endpoints []string
	TTL       int
}

type Client struct{ *clientv3.Client }

func New(cfg Config) (*Client, error) {
	cli, err := clientv3.New(clientv3.Config{Endpoints: cfg.Endpoints, DialTimeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	return &Client{cli}, nil
}

// Lease 一次注册的租约；Lost 在续约中断（租约过期或客户端关闭）时关闭
type Lease struct {
	ID   clientv3.LeaseID
	Lost <-chan struct{}
}

// Register ctx 只约束 Grant/Put；续约跟随客户端生命周期
func (c *Client) Register(ctx context.Context, key, val string, ttl int64) (Lease, error) {
	grant, err := c.Client.Grant(ctx, ttl)
	if err != nil {
		return Lease{}, err
	}
	if _, err := c.Client.Put(ctx, key, val, clientv3.WithLease(grant.ID)); err != nil {
		return Lease{}, err
	}
	ch, err := c.Client.KeepAlive(c.Client.Ctx(), grant.ID)
	if err != nil {
		return Lease{}, err
	}
	lost := make(chan struct{})
	go func() {
		defer close(lost)
		for range ch {
		}
	}()
	return Lease{ID: grant.ID, Lost: lost}, nil
}

// Deregister key 可能已随租约过期，错误忽略
func (c *Client) Deregister(ctx context.Context, key string, leaseID clientv3.LeaseID) {
	_, _ = c.Client.Delete(ctx, key)
	if leaseID > 0 {
		_, _ = c.Client.Revoke(ctx, leaseID)
	}
}

func (c *Client) Close() error { return c.Client.Close() }
