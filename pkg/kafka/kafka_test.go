package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/kafka-go"
)

type memWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestProducerEncodesValues(t *testing.T) {
	w := &memWriter{}
	p := NewProducerWithWriter(w, "gzip")

	if err := p.Publish(context.Background(), "reports", []byte("k1"), map[string]int{"band": 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.PublishMessage(context.Background(), "logs", "raw"); err != nil {
		t.Fatalf("publish message: %v", err)
	}

	got := []string{string(w.msgs[0].Value), string(w.msgs[1].Value)}
	want := []string{`{"band":1}`, "raw"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if w.msgs[0].Topic != "reports" || string(w.msgs[0].Key) != "k1" || w.msgs[1].Key != nil {
		t.Fatalf("unexpected routing %+v", w.msgs)
	}
}

func TestProducerWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&memWriter{err: boom}, "gzip")
	err := p.Publish(context.Background(), "reports", nil, []byte("x"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
	if err := p.PublishBatch(context.Background(), "reports", nil); err != nil {
		t.Fatalf("empty batch must be a no-op, got %v", err)
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestBackoffWithJitter(t *testing.T) {
	min, max := 100*time.Millisecond, time.Second
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		if d <= 0 || d > max {
			t.Fatalf("attempt %d: backoff %v out of range", attempt, d)
		}
	}
	if d := backoffWithJitter(min, max, 1); d < min/2 {
		t.Fatalf("first backoff %v below half of min", d)
	}
}

func TestHookChainOrderAndPanics(t *testing.T) {
	var order []string
	rec := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, _ kafka.Message, data []byte) (context.Context, []byte, error) {
				order = append(order, "before:"+name)
				return ctx, append(data, name...), nil
			},
			After: func(context.Context, string, kafka.Message, error) {
				order = append(order, "after:"+name)
			},
		}
	}
	chain := NewHookChain(rec("a"), nil, rec("b"))
	_, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte(">"))
	if err != nil {
		t.Fatalf("before: %v", err)
	}
	chain.AfterHandle(context.Background(), "t", kafka.Message{}, nil)
	if string(data) != ">ab" {
		t.Fatalf("data = %q", data)
	}
	want := []string{"before:a", "before:b", "after:b", "after:a"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	panicky := NewHookChain(HookFuncs{Before: func(context.Context, string, kafka.Message, []byte) (context.Context, []byte, error) {
		panic("boom")
	}})
	_, _, err = panicky.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	if !errors.As(err, &he) || he.Code != "ERR_PANIC" {
		t.Fatalf("expected ERR_PANIC hook error, got %v", err)
	}
}

func TestTraceHook(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	ctx, _, err := TraceHook().BeforeHandle(context.Background(), "t", km, nil)
	if err != nil {
		t.Fatalf("trace hook: %v", err)
	}
	if got := TraceID(ctx); got != "abc" {
		t.Fatalf("trace id = %q", got)
	}
	if got := TraceID(context.Background()); got != "" {
		t.Fatalf("expected empty trace id, got %q", got)
	}
}

type orderRecorder struct {
	mu   sync.Mutex
	seen map[int][]int64
	done chan struct{}
	want int
	n    int
}

func (r *orderRecorder) Topic() string { return "observations" }

func (r *orderRecorder) Handle(_ context.Context, b []byte) error {
	var partition int
	var offset int64
	if _, err := fmt.Sscanf(string(b), "%d:%d", &partition, &offset); err != nil {
		return err
	}
	// uneven handling time so a shared queue would reorder
	time.Sleep(time.Duration(offset%3) * time.Millisecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[partition] = append(r.seen[partition], offset)
	r.n++
	if r.n == r.want {
		close(r.done)
	}
	return nil
}

func TestConsumerKeepsPartitionOrder(t *testing.T) {
	c, err := NewConsumer(nil, WithConsumerBrokers([]string{"localhost:9092"}), WithConsumerWorkers(4))
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	const partitions, perPartition = 3, 30
	rec := &orderRecorder{seen: map[int][]int64{}, done: make(chan struct{}), want: partitions * perPartition}
	c.RegisterHandler(rec)
	c.startWorkers()

	for off := int64(0); off < perPartition; off++ {
		for p := 0; p < partitions; p++ {
			msg := kafka.Message{Topic: "observations", Partition: p, Offset: off, Value: []byte(fmt.Sprintf("%d:%d", p, off))}
			if !c.dispatch(msg) {
				t.Fatalf("dispatch refused")
			}
		}
	}

	select {
	case <-rec.done:
	case <-time.After(10 * time.Second):
		t.Fatalf("timed out, handled %d", rec.n)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := make([]int64, perPartition)
	for i := range want {
		want[i] = int64(i)
	}
	for p := 0; p < partitions; p++ {
		if diff := cmp.Diff(want, rec.seen[p]); diff != "" {
			t.Fatalf("partition %d out of order (-want +got):\n%s", p, diff)
		}
	}
}

func TestLaneForIsStable(t *testing.T) {
	c, err := NewConsumer(nil, WithConsumerBrokers([]string{"localhost:9092"}), WithConsumerWorkers(3))
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	for p := 0; p < 10; p++ {
		a, b := c.laneFor("observations", p), c.laneFor("observations", p)
		if a != b || a < 0 || a >= 3 {
			t.Fatalf("partition %d mapped to %d and %d", p, a, b)
		}
	}
}
