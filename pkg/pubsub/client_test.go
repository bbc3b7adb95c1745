package pubsub

import (
	"testing"

	"github.com/hangarops/hangar-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "hangar-prod"}

	if got := c.topicResourceName("work-orders"); got != "projects/hangar-prod/topics/work-orders" {
		t.Fatalf("unexpected topic name %q", got)
	}
	if got := c.topicResourceName("projects/other/topics/x"); got != "projects/other/topics/x" {
		t.Fatalf("full topic names should pass through, got %q", got)
	}
	if got := c.subscriptionResourceName(" work-orders-sub "); got != "projects/hangar-prod/subscriptions/work-orders-sub" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	if got := c.subscriptionResourceName(""); got != "" {
		t.Fatalf("blank names should resolve to empty, got %q", got)
	}
}

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	if names := subscriptionNames(config.PubSubConfig{}); len(names) != 0 {
		t.Fatalf("expected no subscriptions, got %v", names)
	}
	names := subscriptionNames(config.PubSubConfig{WorkOrdersSubscription: "wo-sub"})
	if len(names) != 1 || names[0] != "wo-sub" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.Publisher("x") != nil || c.subscriptionResourceName("x") != "" {
		t.Fatal("nil client should return nil handles")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil close should be a no-op: %v", err)
	}
}
