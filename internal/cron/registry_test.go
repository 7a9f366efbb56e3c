package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	jobA := &stubJob{name: "payment-expiry"}
	jobB := &stubJob{name: "session-cleanup"}
	registry := NewRegistry(jobA, nil)
	registry.Register(jobB)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != jobA || jobs[1] != jobB {
		t.Fatalf("jobs returned out of order")
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
	if names := registry.Names(); len(names) != 2 || names[1] != "session-cleanup" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestRegistrySelect(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "a"}, &stubJob{name: "b"})

	all, unknown := registry.Select()
	if len(all) != 2 || len(unknown) != 0 {
		t.Fatalf("expected every job, got %d (unknown %v)", len(all), unknown)
	}
	picked, unknown := registry.Select("b", "zzz")
	if len(picked) != 1 || picked[0].Name() != "b" {
		t.Fatalf("expected job b, got %v", picked)
	}
	if len(unknown) != 1 || unknown[0] != "zzz" {
		t.Fatalf("expected zzz reported unknown, got %v", unknown)
	}
}
