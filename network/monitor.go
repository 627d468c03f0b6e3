package network

import (
	"context"
	"time"

	"github.com/sisu-network/lib/log"
	"github.com/ybbus/jsonrpc/v3"
	"go.uber.org/atomic"
)

const DefaultCheckInterval = time.Minute

// Monitor probes the RPC node on a fixed interval and records connectivity
// for the health endpoint. It uses a raw json-rpc client so that a probe
// failure stays independent of the transfer pipeline's own client.
type Monitor struct {
	client    jsonrpc.RPCClient
	interval  time.Duration
	timeout   time.Duration
	connected *atomic.Bool
}

func NewMonitor(rpcUrl string, interval, timeout time.Duration) *Monitor {
	return &Monitor{
		client:    jsonrpc.NewClient(rpcUrl),
		interval:  interval,
		timeout:   timeout,
		connected: atomic.NewBool(false),
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) loop() {
	for {
		if !m.Check(context.Background()) {
			log.Warn("RPC node is not reachable")
		}

		time.Sleep(m.interval)
	}
}

// Check issues a single eth_blockNumber probe and updates the recorded state.
func (m *Monitor) Check(ctx context.Context) bool {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.client.Call(callCtx, "eth_blockNumber")
	ok := err == nil && resp != nil && resp.Error == nil

	m.connected.Store(ok)
	return ok
}

func (m *Monitor) Connected() bool {
	return m.connected.Load()
}
