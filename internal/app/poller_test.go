package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/five82/dizquetv/internal/state"
	"github.com/five82/dizquetv/pkg/dizquetv"
)

type fakeFetcher struct {
	serverErr error
	guideErr  error
	calls     atomic.Int32
}

func (f *fakeFetcher) Server(context.Context) (*dizquetv.ServerDetails, error) {
	f.calls.Add(1)
	if f.serverErr != nil {
		return nil, f.serverErr
	}
	return &dizquetv.ServerDetails{DizqueTV: "1.5.0"}, nil
}

func (f *fakeFetcher) Channels(context.Context) ([]*dizquetv.Channel, error) {
	return []*dizquetv.Channel{
		{Number: 1, Name: "One", Programs: make([]dizquetv.Program, 2)},
		{Number: 4, Name: "Four"},
	}, nil
}

func (f *fakeFetcher) GuideStatus(context.Context) (*dizquetv.GuideStatus, error) {
	if f.guideErr != nil {
		return nil, f.guideErr
	}
	return &dizquetv.GuideStatus{LastUpdate: "2024-03-01T20:00:00.000Z"}, nil
}

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestRefresh_StoresSummaries(t *testing.T) {
	var store state.Store
	if err := refresh(context.Background(), &store, &fakeFetcher{}); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	snap := store.Snapshot()
	if !snap.HasServer || snap.Server.DizqueTV != "1.5.0" {
		t.Fatalf("server = %#v", snap.Server)
	}
	if len(snap.Channels) != 2 || snap.Channels[0].Programs != 2 || snap.Channels[1].Name != "Four" {
		t.Fatalf("channels = %#v", snap.Channels)
	}
	if !snap.HasGuide {
		t.Fatal("guide status missing")
	}
}

func TestRefresh_GuideFailureIsNotFatal(t *testing.T) {
	var store state.Store
	if err := refresh(context.Background(), &store, &fakeFetcher{guideErr: errors.New("no guide")}); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	snap := store.Snapshot()
	if snap.HasGuide || len(snap.Channels) != 2 || snap.LastError != nil {
		t.Fatalf("snapshot = %#v", snap)
	}
}

func TestRefresh_ServerFailureRecorded(t *testing.T) {
	var store state.Store
	boom := errors.New("connection refused")
	err := refresh(context.Background(), &store, &fakeFetcher{serverErr: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("refresh error = %v, want %v", err, boom)
	}
	snap := store.Snapshot()
	if snap.ConsecutiveFailures != 1 || !errors.Is(snap.LastError, boom) {
		t.Fatalf("snapshot = %#v", snap)
	}
}

func TestStartPoller_LogsFailuresAndStops(t *testing.T) {
	logger, hook := test.NewNullLogger()
	fetcher := &fakeFetcher{serverErr: errors.New("down")}
	var store state.Store

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartPoller(ctx, &store, fetcher, time.Millisecond, logger)

	deadline := time.Now().Add(2 * time.Second)
	for store.Snapshot().ConsecutiveFailures == 0 {
		if time.Now().After(deadline) {
			t.Fatal("poller never updated the store")
		}
		time.Sleep(5 * time.Millisecond)
	}

	for len(hook.AllEntries()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("poller never logged the failure")
		}
		time.Sleep(5 * time.Millisecond)
	}
	entry := hook.AllEntries()[0]
	if entry.Level != logrus.WarnLevel || entry.Data["failures"] != 1 {
		t.Fatalf("log entry = %v %#v", entry.Level, entry.Data)
	}
}

func TestStartPoller_WaitsOneIntervalBeforeFirstPoll(t *testing.T) {
	logger, _ := test.NewNullLogger()
	fetcher := &fakeFetcher{}
	var store state.Store

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartPoller(ctx, &store, fetcher, time.Hour, logger)

	time.Sleep(50 * time.Millisecond)
	if n := fetcher.calls.Load(); n != 0 {
		t.Fatalf("fetched %d times before the first interval elapsed", n)
	}
}
