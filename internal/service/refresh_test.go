package service

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/AgilePulse/internal/adapter/ws"
	"github.com/Strob0t/AgilePulse/internal/domain/epic"
	"github.com/Strob0t/AgilePulse/internal/domain/pi"
)

func newRefresher(f *fixture, concurrency int, hub *mockHub) *Refresher {
	pis := NewPIService(f.store, f.orgs, f.rc, nil)
	epics := NewEpicService(f.store, f.orgs, f.rc, nil)
	if hub == nil {
		return NewRefresher(f.orgs, pis, epics, concurrency, nil)
	}
	return NewRefresher(f.orgs, pis, epics, concurrency, hub)
}

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"*/15 * * * *", false},
		{"0 6 * * 1-5", false},
		{"@hourly", false},
		{"* * * * * *", true},
		{"every minute", true},
	}
	for _, tt := range tests {
		_, err := ParseSchedule(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSchedule(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
		}
	}
}

func TestRefresherRunOnce(t *testing.T) {
	f := newFixture(t)
	f.store.pis = []pi.PI{{Name: "2025-Q1"}, {Name: "2025-Q2"}, {Name: "2025-Q3"}}
	f.store.epics = []epic.Epic{{Key: "E-1", OwningTeam: "Alpha"}}
	f.store.epicsErrForPI = "2025-Q2"
	hub := &mockHub{}
	r := newRefresher(f, 2, hub)

	stats, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Groups != 3 || stats.Teams != 3 {
		t.Errorf("org stats = %+v", stats)
	}
	if stats.Warmed != 2 || stats.Failed != 1 {
		t.Errorf("warm stats = %+v", stats)
	}
	if len(f.cache.keys("report.epics-by-pi.")) != 2 {
		t.Errorf("expected 2 warmed reports, got %v", f.cache.keys("report.epics-by-pi."))
	}
	if len(hub.events) != 1 || hub.events[0].eventType != ws.EventOrgRefreshed {
		t.Errorf("events = %+v", hub.events)
	}
}

func TestRefresherBoundsConcurrency(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		f.store.pis = append(f.store.pis, pi.PI{Name: name})
	}
	f.store.epicsDelay = 20 * time.Millisecond
	r := newRefresher(f, 2, nil)

	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if peak := f.store.listEpicsPeak.Load(); peak > 2 {
		t.Fatalf("expected at most 2 concurrent warm-ups, got %d", peak)
	}
}

func TestRefresherStartDisabled(t *testing.T) {
	f := newFixture(t)
	r := newRefresher(f, 1, nil)

	if err := r.Start(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	r.Stop(time.Second)

	if err := r.Start(context.Background(), "not a schedule"); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestRefresherStartStop(t *testing.T) {
	f := newFixture(t)
	r := newRefresher(f, 1, nil)

	if err := r.Start(context.Background(), "@every 1h"); err != nil {
		t.Fatal(err)
	}
	r.Stop(time.Second)
}
