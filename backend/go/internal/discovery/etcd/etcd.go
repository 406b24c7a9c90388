// Package etcd registers service instances under a leased key.
package etcd

import (
	"Recall_1.0/backend/go/internal/config"
	"Recall_1.0/backend/go/pkg/logger"
	"context"
	"fmt"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// ServiceDiscovery registers and looks up service addresses.
type ServiceDiscovery struct {
	cli *clientv3.Client
	log *logger.Logger
}

// Registration is one live registration. Revoke it on shutdown.
type Registration struct {
	sd      *ServiceDiscovery
	key     string
	leaseID clientv3.LeaseID
	cancel  context.CancelFunc
	once    sync.Once
}

// ServiceKey is "/<service>/<addr>".
func ServiceKey(serviceName, addr string) string {
	return "/" + serviceName + "/" + addr
}

// NewServiceDiscovery connects to the configured endpoints.
func NewServiceDiscovery(cfg config.EtcdConfig) (*ServiceDiscovery, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return &ServiceDiscovery{cli: cli, log: logger.New("etcd", "", "")}, nil
}

// Register puts addr under a lease of ttl seconds and keeps the lease alive
// until ctx ends or the registration is revoked.
func (s *ServiceDiscovery) Register(ctx context.Context, serviceName, addr string, ttl int64) (*Registration, error) {
	if ttl <= 0 {
		ttl = 10
	}
	lease, err := s.cli.Grant(ctx, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to grant lease: %w", err)
	}

	key := ServiceKey(serviceName, addr)
	if _, err := s.cli.Put(ctx, key, addr, clientv3.WithLease(lease.ID)); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", key, err)
	}

	kaCtx, cancel := context.WithCancel(context.Background())
	keepAlive, err := s.cli.KeepAlive(kaCtx, lease.ID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to keep lease alive: %w", err)
	}

	reg := &Registration{sd: s, key: key, leaseID: lease.ID, cancel: cancel}
	go func() {
		for {
			select {
			case <-ctx.Done():
				reg.Revoke(context.Background())
				return
			case _, ok := <-keepAlive:
				if !ok {
					s.log.Warn("etcd lease keep-alive stopped for " + key)
					return
				}
			}
		}
	}()

	s.log.Info("registered " + key)
	return reg, nil
}

// Revoke stops the keep-alive and revokes the lease, which deletes the key.
func (r *Registration) Revoke(ctx context.Context) error {
	var err error
	r.once.Do(func() {
		r.cancel()
		if _, rerr := r.sd.cli.Revoke(ctx, r.leaseID); rerr != nil {
			err = fmt.Errorf("failed to revoke %s: %w", r.key, rerr)
		}
	})
	return err
}

// Discover returns every address registered for serviceName.
func (s *ServiceDiscovery) Discover(ctx context.Context, serviceName string) ([]string, error) {
	resp, err := s.cli.Get(ctx, "/"+serviceName+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	var addrs []string
	for _, kv := range resp.Kvs {
		addrs = append(addrs, string(kv.Value))
	}
	return addrs, nil
}

// Close closes the etcd client.
func (s *ServiceDiscovery) Close() error {
	return s.cli.Close()
}
