package kmark

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager[string](nil); err == nil {
		t.Error("nil metadata was accepted")
	}
	if _, err := NewManager[string](newTestMeta(), WithListener("")); err == nil {
		t.Error("empty listener was accepted")
	}
	if _, err := NewManager[string](newTestMeta(), WithLedgerShards(0)); err == nil {
		t.Error("zero ledger shards was accepted")
	}
	if _, err := NewManager[string](newTestMeta(), WithDrainInterval(0)); err == nil {
		t.Error("zero drain interval was accepted")
	}
}

func TestRunDrainsOnTrigger(t *testing.T) {
	meta := newTestMeta()
	meta.addNode(1, "b1")
	meta.setLeader("t", 0, 1)
	m := newTestManager(t, meta, WithDrainInterval(time.Hour)) // only triggers drain

	sends := make(chan Send, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() {
		runErr <- m.Run(ctx, func(s Send) { sends <- s })
	}()

	if err := m.Route(0, 42, 1, TxnCommit, 3, []TopicPartitions{{Topic: "t", Partitions: []int32{0}}}); err != nil {
		t.Fatal(err)
	}
	m.TriggerDrain()

	select {
	case s := <-sends:
		if s.Node != 1 {
			t.Errorf("send to node %d, wanted 1", s.Node)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no send after TriggerDrain")
	}

	cancel()
	select {
	case err := <-runErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, wanted context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReturnsOnClose(t *testing.T) {
	m := newTestManager(t, newTestMeta(), WithDrainInterval(time.Hour))

	runErr := make(chan error, 1)
	go func() {
		runErr <- m.Run(context.Background(), func(Send) {})
	}()

	m.Close()
	select {
	case err := <-runErr:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Run returned %v, wanted ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	m.Close() // idempotent
}

func TestRunDrainsOnInterval(t *testing.T) {
	meta := newTestMeta()
	meta.addNode(1, "b1")
	meta.setLeader("t", 0, 1)
	m := newTestManager(t, meta, WithDrainInterval(5*time.Millisecond))

	sends := make(chan Send, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx, func(s Send) {
		select {
		case sends <- s:
		default:
		}
	})

	if err := m.Route(0, 42, 1, TxnCommit, 3, []TopicPartitions{{Topic: "t", Partitions: []int32{0}}}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-sends:
	case <-time.After(5 * time.Second):
		t.Fatal("no send from the interval drain")
	}
}
