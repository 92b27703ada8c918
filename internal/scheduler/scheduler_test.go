package scheduler

import (
	"context"
	"errors"
	"testing"
)

type fakeCounter struct {
	system, owned int
	err           error
}

func (f fakeCounter) CountThemes(context.Context) (int, int, error) {
	return f.system, f.owned, f.err
}

type fakeRecorder struct {
	system, owned int
	calls         int
}

func (f *fakeRecorder) SetStoredThemes(system, owned int) {
	f.system, f.owned = system, owned
	f.calls++
}

func TestAddJobValidation(t *testing.T) {
	var nilService *Service
	if _, err := nilService.AddJob("job", "* * * * *", func() {}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("nil service: %v", err)
	}

	svc, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	svc.Start()
	t.Cleanup(func() { svc.Stop() })

	if _, err := svc.AddJob(" ", "* * * * *", func() {}); !errors.Is(err, ErrEmptyJobName) {
		t.Fatalf("empty name: %v", err)
	}
	if _, err := svc.AddJob("job", "", func() {}); !errors.Is(err, ErrEmptyCronExpr) {
		t.Fatalf("empty cron: %v", err)
	}
	if _, err := svc.AddJob("job", "not a cron", func() {}); err == nil {
		t.Fatal("invalid cron expression should fail")
	}
}

func TestRegisterInventoryJob(t *testing.T) {
	svc, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	svc.Start()
	t.Cleanup(func() { svc.Stop() })

	if err := RegisterInventoryJob(svc, fakeCounter{}, &fakeRecorder{}, "*/5 * * * *"); err != nil {
		t.Fatalf("RegisterInventoryJob: %v", err)
	}
	jobs := svc.Jobs()
	if len(jobs) != 1 || jobs[0].Name() != inventoryJobName {
		t.Fatalf("unexpected jobs: %v", jobs)
	}

	if err := RegisterInventoryJob(svc, nil, &fakeRecorder{}, "*/5 * * * *"); err == nil {
		t.Fatal("missing counter should fail")
	}
}

func TestRunInventory(t *testing.T) {
	recorder := &fakeRecorder{}
	if err := RunInventory(context.Background(), fakeCounter{system: 4, owned: 7}, recorder); err != nil {
		t.Fatalf("RunInventory: %v", err)
	}
	if recorder.system != 4 || recorder.owned != 7 {
		t.Fatalf("recorded %d/%d", recorder.system, recorder.owned)
	}

	err := RunInventory(context.Background(), fakeCounter{err: errors.New("locked")}, recorder)
	if err == nil || recorder.calls != 1 {
		t.Fatalf("a failed count must not touch the gauges: err=%v calls=%d", err, recorder.calls)
	}
}
