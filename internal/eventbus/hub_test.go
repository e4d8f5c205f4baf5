package eventbus

import (
	"context"
	"testing"
	"time"
)

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := hub.Subscribe(ctx, 4)
	hub.Publish(Notification{Topic: TopicWindowChange, Data: map[string]any{"application": "code.exe"}})

	select {
	case n := <-ch:
		if n.Topic != TopicWindowChange {
			t.Fatalf("topic=%q, want %q", n.Topic, TopicWindowChange)
		}
		if n.Timestamp == 0 {
			t.Fatal("timestamp should be filled in")
		}
		if n.Data["application"] != "code.exe" {
			t.Fatalf("data=%v", n.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := hub.Subscribe(ctx, 1)
	hub.Publish(Notification{Topic: TopicUsageFlush})
	hub.Publish(Notification{Topic: TopicUsageFlush}) // 缓冲满，丢弃

	<-ch
	select {
	case n := <-ch:
		t.Fatalf("unexpected second notification: %+v", n)
	default:
	}
}

func TestHubUnsubscribesOnContextDone(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch := hub.Subscribe(ctx, 1)
	cancel()

	// 退订后通道被关闭
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after context cancel")
		}
	}
}
