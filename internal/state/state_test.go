package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/litescript/ls-orrery/internal/body"
	"github.com/litescript/ls-orrery/internal/dataset"
	"github.com/litescript/ls-orrery/internal/scene"
)

func newScene(t *testing.T) *scene.Scene {
	t.Helper()
	cat, err := dataset.Default(body.Discard)
	if err != nil {
		t.Fatalf("dataset.Default: %v", err)
	}
	return scene.New(cat, scene.DefaultConfig(), body.Discard)
}

func TestNewManager(t *testing.T) {
	m := NewManager(DefaultConfig())
	if m == nil {
		t.Fatal("NewManager returned nil")
	}
	if m.HasData() {
		t.Error("HasData should be false initially")
	}
	if snap := m.Snapshot(); snap.Frame != nil {
		t.Error("Frame should be nil before Publish")
	}
}

func TestManager_Publish(t *testing.T) {
	m := NewManager(DefaultConfig())
	s := newScene(t)

	frame := FrameFromScene(s)
	m.Publish(frame, 2*time.Millisecond)

	if !m.HasData() {
		t.Fatal("HasData should be true after Publish")
	}
	snap := m.Snapshot()
	if snap.Frames != 1 {
		t.Errorf("Frames = %d, want 1", snap.Frames)
	}
	if len(snap.Frame.Bodies) != s.Catalog().Len() {
		t.Errorf("Bodies = %d, want %d", len(snap.Frame.Bodies), s.Catalog().Len())
	}
	if snap.Frame.Bodies[0].ID != "sun" {
		t.Errorf("first body = %q, want sun", snap.Frame.Bodies[0].ID)
	}
	if snap.Passes.Count != 1 || math.Abs(snap.Passes.Mean-0.002) > 1e-12 {
		t.Errorf("Passes = %+v, want one pass of 2ms", snap.Passes)
	}
}

func TestManager_PassStats(t *testing.T) {
	m := NewManager(Config{MaxPassHistory: 3, MaxEvents: 5})
	frame := FrameSnapshot{}
	for _, ms := range []int{100, 1, 2, 3} {
		m.Publish(frame, time.Duration(ms)*time.Millisecond)
	}

	ps := m.Snapshot().Passes
	if ps.Count != 3 {
		t.Fatalf("Count = %d, want 3 (bounded)", ps.Count)
	}
	if math.Abs(ps.Mean-0.002) > 1e-12 {
		t.Errorf("Mean = %v, want 0.002", ps.Mean)
	}
	if math.Abs(ps.Max-0.003) > 1e-12 {
		t.Errorf("Max = %v, want 0.003", ps.Max)
	}
	if math.Abs(ps.StdDev-0.001) > 1e-12 {
		t.Errorf("StdDev = %v, want 0.001", ps.StdDev)
	}
}

func TestManager_EventRingBuffer(t *testing.T) {
	m := NewManager(Config{MaxEvents: 3})
	for i := 0; i < 5; i++ {
		m.AddEvent(Event{Type: EventRealism, Message: fmt.Sprintf("e%d", i)})
	}

	events := m.Snapshot().Events
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	for i, want := range []string{"e2", "e3", "e4"} {
		if events[i].Message != want {
			t.Errorf("events[%d] = %q, want %q", i, events[i].Message, want)
		}
		if events[i].Timestamp.IsZero() {
			t.Errorf("events[%d] has zero timestamp", i)
		}
	}

	recent := m.RecentEvents(2)
	if len(recent) != 2 || recent[1].Message != "e4" {
		t.Errorf("RecentEvents(2) = %+v", recent)
	}
}

func TestManager_ObserveSceneAndIssues(t *testing.T) {
	m := NewManager(DefaultConfig())
	s := newScene(t)
	unsub := s.Subscribe(m.ObserveScene)
	defer unsub()

	s.SetRealismLevel(0.5)
	if err := s.SetFocusedBody("earth"); err != nil {
		t.Fatalf("SetFocusedBody: %v", err)
	}
	m.Report(body.Issue{Severity: body.SeverityWarning, BodyID: "ceres", Err: body.ErrClamped})

	events := m.Snapshot().Events
	var types []EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	if len(events) < 3 {
		t.Fatalf("events = %v", types)
	}
	if events[0].Type != EventRealism {
		t.Errorf("first event = %s, want %s", events[0].Type, EventRealism)
	}
	if events[1].Type != EventFocus || events[1].BodyID != "earth" {
		t.Errorf("second event = %+v, want focus on earth", events[1])
	}
	last := events[len(events)-1]
	if last.Type != EventIssue || last.BodyID != "ceres" || last.Severity != "warning" {
		t.Errorf("last event = %+v, want ceres warning", last)
	}
}

func TestManager_Snapshot_IsCopy(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.Publish(FrameFromScene(newScene(t)), 0)

	snap := m.Snapshot()
	snap.Frame.Bodies[0].ID = "mutated"
	snap.Frame.State.RealismLevel = 42

	snap2 := m.Snapshot()
	if snap2.Frame.Bodies[0].ID == "mutated" {
		t.Error("Snapshot body modification affected manager state")
	}
	if snap2.Frame.State.RealismLevel == 42 {
		t.Error("Snapshot state modification affected manager state")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(DefaultConfig())
	s := newScene(t)

	var wg sync.WaitGroup
	iterations := 100

	// Writer goroutine owns the scene
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			s.Frame(1.0 / 30)
			m.Publish(FrameFromScene(s), time.Duration(i)*time.Microsecond)
			m.AddEvent(Event{Type: EventTimeScale, Message: "tick"})
		}
	}()

	// Reader goroutines
	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				_ = m.Snapshot()
				_ = m.HasData()
				_ = m.RecentEvents(5)
			}
		}()
	}

	wg.Wait()

	if got := m.Snapshot().Frames; got != uint64(iterations) {
		t.Errorf("Frames = %d, want %d", got, iterations)
	}
}

func TestWriteJSON(t *testing.T) {
	m := NewManager(DefaultConfig())
	if err := WriteJSON(&bytes.Buffer{}, m.Snapshot()); err == nil {
		t.Error("WriteJSON without a frame should fail")
	}

	m.Publish(FrameFromScene(newScene(t)), 0)
	var buf bytes.Buffer
	if err := WriteJSON(&buf, m.Snapshot()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var out SnapshotExport
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(out.Bodies) == 0 || out.Bodies[0].ID != "sun" {
		t.Errorf("bodies = %+v", out.Bodies)
	}
	if out.Bodies[0].Category != "star" {
		t.Errorf("sun category = %q, want star", out.Bodies[0].Category)
	}
}

func TestWriteSummaryTable(t *testing.T) {
	var empty bytes.Buffer
	if err := WriteSummaryTable(&empty, Snapshot{}); err != nil {
		t.Fatalf("WriteSummaryTable: %v", err)
	}
	if !strings.Contains(empty.String(), "No frame") {
		t.Errorf("empty output = %q", empty.String())
	}

	m := NewManager(DefaultConfig())
	m.Publish(FrameFromScene(newScene(t)), 0)
	var buf bytes.Buffer
	if err := WriteSummaryTable(&buf, m.Snapshot()); err != nil {
		t.Fatalf("WriteSummaryTable: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"BODY", "Earth", "Jupiter", "Total:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
