package connectivity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/interfaces"
	"github.com/bobmcallan/moneta/internal/models"
)

// fakeClient only implements Ping; the monitor never touches the rest.
type fakeClient struct {
	mu      sync.Mutex
	pingErr error
	pings   int
	block   chan struct{}
}

func (c *fakeClient) Ping(_ context.Context) error {
	c.mu.Lock()
	c.pings++
	err := c.pingErr
	block := c.block
	c.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (c *fakeClient) setErr(err error) {
	c.mu.Lock()
	c.pingErr = err
	c.mu.Unlock()
}

func (c *fakeClient) pingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

func (c *fakeClient) CreateEntries(context.Context, *models.LedgerRequest) ([]*models.LedgerEntry, error) {
	return nil, nil
}

func (c *fakeClient) ListEntries(context.Context, interfaces.ListOptions) ([]*models.LedgerEntry, *interfaces.Pagination, error) {
	return nil, nil, nil
}

func (c *fakeClient) UpdateEntry(context.Context, string, *models.EntryPatch, bool) ([]*models.LedgerEntry, error) {
	return nil, nil
}

func (c *fakeClient) DeleteEntry(context.Context, string, bool) error {
	return nil
}

func testLogger() *common.Logger {
	return common.NewLogger("error")
}

func TestMonitor_StartsOptimistic(t *testing.T) {
	m := NewMonitor(&fakeClient{}, testLogger())
	if !m.IsConnected() {
		t.Error("monitor should assume connected before the first probe")
	}
	snap := m.Snapshot()
	if snap.LastCheckedAt != nil {
		t.Error("no probe has run yet")
	}
}

func TestMonitor_FailuresAccumulate(t *testing.T) {
	client := &fakeClient{pingErr: common.Network("probe failed", nil)}
	m := NewMonitor(client, testLogger())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if m.Check(ctx) {
			t.Errorf("probe %d should report disconnected", i)
		}
		snap := m.Snapshot()
		if snap.ConsecutiveFailures != i {
			t.Errorf("after probe %d failures = %d", i, snap.ConsecutiveFailures)
		}
	}

	client.setErr(nil)
	if !m.Check(ctx) {
		t.Error("probe should report connected again")
	}
	snap := m.Snapshot()
	if snap.ConsecutiveFailures != 0 {
		t.Errorf("success should reset failures, got %d", snap.ConsecutiveFailures)
	}
	if snap.LastCheckedAt == nil {
		t.Error("LastCheckedAt should be stamped")
	}
}

func TestMonitor_TransitionCallbacks(t *testing.T) {
	client := &fakeClient{}
	m := NewMonitor(client, testLogger())

	var mu sync.Mutex
	var flips []bool
	m.OnTransition(func(online bool) {
		mu.Lock()
		flips = append(flips, online)
		mu.Unlock()
	})

	ctx := context.Background()

	// Online to online is not a transition
	m.Check(ctx)
	client.setErr(common.Network("down", nil))
	m.Check(ctx) // online -> offline
	m.Check(ctx) // still offline, no callback
	client.setErr(nil)
	m.Check(ctx) // offline -> online

	mu.Lock()
	defer mu.Unlock()
	if len(flips) != 2 || flips[0] != false || flips[1] != true {
		t.Errorf("expected transitions [false true], got %v", flips)
	}
}

func TestMonitor_CheckIsNonReentrant(t *testing.T) {
	client := &fakeClient{block: make(chan struct{})}
	m := NewMonitor(client, testLogger())
	ctx := context.Background()

	done := make(chan bool)
	go func() {
		done <- m.Check(ctx)
	}()

	// Wait for the first probe to be in flight
	deadline := time.Now().Add(time.Second)
	for client.pingCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first probe never started")
		}
		time.Sleep(time.Millisecond)
	}

	// A concurrent Check returns the last known state without probing
	if !m.Check(ctx) {
		t.Error("concurrent check should return the optimistic state")
	}
	if got := client.pingCount(); got != 1 {
		t.Errorf("expected a single probe, got %d", got)
	}

	close(client.block)
	<-done
}

func TestMonitor_IsDataStale(t *testing.T) {
	m := NewMonitor(&fakeClient{}, testLogger(), WithStalenessThreshold(10*time.Minute))

	if !m.IsDataStale(time.Time{}) {
		t.Error("zero sync time is always stale")
	}
	if m.IsDataStale(time.Now().Add(-time.Minute)) {
		t.Error("a recent sync is not stale")
	}
	if !m.IsDataStale(time.Now().Add(-time.Hour)) {
		t.Error("an hour-old sync is stale")
	}
}

func TestMonitor_StartPolls(t *testing.T) {
	client := &fakeClient{}
	m := NewMonitor(client, testLogger(), WithPollInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)

	deadline := time.Now().Add(time.Second)
	for client.pingCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated probes, got %d", client.pingCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}
