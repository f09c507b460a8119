package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type stubSchedulerConfig struct {
	url string
}

func (c stubSchedulerConfig) GetRedisURL() string       { return c.url }
func (c stubSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c stubSchedulerConfig) GetAsynqQueueName() string { return "engagement" }
func (c stubSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func (c stubSchedulerConfig) GetSweepInterval() time.Duration { return time.Minute }

func TestNewClient_RequiresRedisURL(t *testing.T) {
	if _, err := NewClient(stubSchedulerConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestClient_EnqueuesDeferredTasks(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(stubSchedulerConfig{url: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer func() { _ = client.Close() }()

	at := time.Now().Add(time.Hour)
	if err := client.ScheduleFollowUp(context.Background(), "lead-1", at); err != nil {
		t.Fatalf("schedule follow-up: %v", err)
	}
	if err := client.ScheduleResponseTimeout(context.Background(), "lead-1", at); err != nil {
		t.Fatalf("schedule response timeout: %v", err)
	}

	if len(mr.Keys()) == 0 {
		t.Fatal("expected scheduled tasks in redis")
	}
}

func TestRedisClientOpt_ParsesURL(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@redis.internal:6380/2", false)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if opt.Addr != "redis.internal:6380" || opt.Password != "secret" || opt.DB != 2 {
		t.Fatalf("unexpected opt %+v", opt)
	}
	if opt.TLSConfig != nil {
		t.Fatal("expected no TLS config for redis scheme")
	}
}

func TestRedisClientOpt_TLSInsecure(t *testing.T) {
	opt, err := redisClientOpt("rediss://redis.internal:6380", true)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS config")
	}
}

func TestRedisClientOpt_RejectsBadURL(t *testing.T) {
	if _, err := redisClientOpt("not a url", false); err == nil {
		t.Fatal("expected error for malformed url")
	}
}
