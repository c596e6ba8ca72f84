package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memoryRepo is an in-memory Repository for transition tests.
type memoryRepo struct {
	jobs map[uuid.UUID]*Job
}

func newMemoryRepo(jobs ...*Job) *memoryRepo {
	m := make(map[uuid.UUID]*Job, len(jobs))
	for _, j := range jobs {
		m[j.ID] = j
	}
	return &memoryRepo{jobs: m}
}

func (r *memoryRepo) Create(ctx context.Context, j *Job) error {
	j.CreatedAt = time.Now()
	j.UpdatedAt = j.CreatedAt
	r.jobs[j.ID] = j
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *memoryRepo) ListOpen(ctx context.Context, category string, limit, offset int) ([]*Job, int, error) {
	out := []*Job{}
	for _, j := range r.jobs {
		if j.Status == StatusOpen && !j.IsEmergency && (category == "" || j.Category == category) {
			out = append(out, j)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*Job, int, error) {
	return nil, 0, nil
}

func (r *memoryRepo) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Job, int, error) {
	return nil, 0, nil
}

func (r *memoryRepo) TryClaim(ctx context.Context, jobID, providerID uuid.UUID) (*Job, error) {
	j, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	if j.Status != StatusOpen {
		return nil, ErrAlreadyClaimed
	}
	now := time.Now()
	j.Status = StatusAccepted
	j.ProviderID = uuid.NullUUID{UUID: providerID, Valid: true}
	j.AcceptedAt = &now
	cp := *j
	return &cp, nil
}

func (r *memoryRepo) Release(ctx context.Context, jobID, providerID uuid.UUID) error {
	j, ok := r.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	j.Status = StatusOpen
	j.ProviderID = uuid.NullUUID{}
	j.AcceptedAt = nil
	return nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, jobID uuid.UUID, from, to Status) error {
	j, ok := r.jobs[jobID]
	if !ok || j.Status != from {
		return ErrInvalidTransition
	}
	j.Status = to
	if to == StatusCompleted {
		now := time.Now()
		j.CompletedAt = &now
	}
	return nil
}

func acceptedJob(customerID, providerID uuid.UUID) *Job {
	now := time.Now()
	return &Job{
		ID:         uuid.New(),
		CustomerID: customerID,
		ProviderID: uuid.NullUUID{UUID: providerID, Valid: true},
		Category:   "locksmith",
		Price:      decimal.NewFromInt(80),
		Status:     StatusAccepted,
		AcceptedAt: &now,
		CreatedAt:  now,
	}
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusOpen, StatusAccepted, true},
		{StatusOpen, StatusCancelled, true},
		{StatusOpen, StatusInProgress, false},
		{StatusAccepted, StatusInProgress, true},
		{StatusAccepted, StatusCancelled, false},
		{StatusAccepted, StatusCompleted, true},
		{StatusAccepted, StatusReported, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusReported, true},
		{StatusInProgress, StatusCancelled, false},
		{StatusCompleted, StatusOpen, false},
		{StatusReported, StatusInProgress, false},
		{StatusCancelled, StatusAccepted, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()
	providerID := uuid.New()

	t.Run("provider walks the full happy path", func(t *testing.T) {
		j := acceptedJob(customerID, providerID)
		svc := NewServiceWithRepository(newMemoryRepo(j))

		started, err := svc.Start(ctx, j.ID, providerID)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if started.Status != StatusInProgress {
			t.Fatalf("status after start = %s, want IN_PROGRESS", started.Status)
		}

		completed, err := svc.Complete(ctx, j.ID, providerID)
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if completed.Status != StatusCompleted {
			t.Fatalf("status after complete = %s, want COMPLETED", completed.Status)
		}
		if completed.CompletedAt == nil {
			t.Error("completed_at not set")
		}
	})

	t.Run("report ends an in-progress job", func(t *testing.T) {
		j := acceptedJob(customerID, providerID)
		svc := NewServiceWithRepository(newMemoryRepo(j))

		if _, err := svc.Start(ctx, j.ID, providerID); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		reported, err := svc.Report(ctx, j.ID, providerID, "no_show")
		if err != nil {
			t.Fatalf("Report() error = %v", err)
		}
		if reported.Status != StatusReported {
			t.Errorf("status = %s, want REPORTED", reported.Status)
		}
	})

	t.Run("another provider cannot drive the job", func(t *testing.T) {
		j := acceptedJob(customerID, providerID)
		svc := NewServiceWithRepository(newMemoryRepo(j))

		if _, err := svc.Start(ctx, j.ID, uuid.New()); !errors.Is(err, ErrNotOwner) {
			t.Errorf("Start() error = %v, want ErrNotOwner", err)
		}
	})

	t.Run("complete works without an explicit start", func(t *testing.T) {
		j := acceptedJob(customerID, providerID)
		svc := NewServiceWithRepository(newMemoryRepo(j))

		completed, err := svc.Complete(ctx, j.ID, providerID)
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if completed.Status != StatusCompleted {
			t.Errorf("status = %s, want COMPLETED", completed.Status)
		}
		if completed.CompletedAt == nil {
			t.Error("completed_at not set")
		}
	})

	t.Run("report works without an explicit start", func(t *testing.T) {
		j := acceptedJob(customerID, providerID)
		svc := NewServiceWithRepository(newMemoryRepo(j))

		reported, err := svc.Report(ctx, j.ID, providerID, "no_show")
		if err != nil {
			t.Fatalf("Report() error = %v", err)
		}
		if reported.Status != StatusReported {
			t.Errorf("status = %s, want REPORTED", reported.Status)
		}
	})

	t.Run("customer cancels an open job", func(t *testing.T) {
		j := &Job{ID: uuid.New(), CustomerID: customerID, Category: "cleaning", Price: decimal.NewFromInt(40), Status: StatusOpen}
		svc := NewServiceWithRepository(newMemoryRepo(j))

		cancelled, err := svc.Cancel(ctx, j.ID, customerID)
		if err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		if cancelled.Status != StatusCancelled {
			t.Errorf("status = %s, want CANCELLED", cancelled.Status)
		}
	})

	t.Run("only the posting customer can cancel", func(t *testing.T) {
		j := &Job{ID: uuid.New(), CustomerID: customerID, Category: "cleaning", Price: decimal.NewFromInt(40), Status: StatusOpen}
		svc := NewServiceWithRepository(newMemoryRepo(j))

		if _, err := svc.Cancel(ctx, j.ID, uuid.New()); !errors.Is(err, ErrNotOwner) {
			t.Errorf("Cancel() error = %v, want ErrNotOwner", err)
		}
	})

	t.Run("cancel after a claim is rejected", func(t *testing.T) {
		j := acceptedJob(customerID, providerID)
		svc := NewServiceWithRepository(newMemoryRepo(j))

		if _, err := svc.Cancel(ctx, j.ID, customerID); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Cancel() error = %v, want ErrInvalidTransition", err)
		}
		got, err := svc.GetByID(ctx, j.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Status != StatusAccepted || !got.ProviderID.Valid {
			t.Errorf("job = %s provider valid=%v, want ACCEPTED with provider kept", got.Status, got.ProviderID.Valid)
		}
	})

	t.Run("cancel after work started is rejected", func(t *testing.T) {
		j := acceptedJob(customerID, providerID)
		svc := NewServiceWithRepository(newMemoryRepo(j))

		if _, err := svc.Start(ctx, j.ID, providerID); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if _, err := svc.Cancel(ctx, j.ID, customerID); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Cancel() error = %v, want ErrInvalidTransition", err)
		}
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewServiceWithRepository(newMemoryRepo())

	t.Run("valid job starts open", func(t *testing.T) {
		j, err := svc.Create(ctx, uuid.New(), &CreateJobRequest{
			Category:    "plumbing",
			Description: "replace kitchen tap",
			Price:       "120.50",
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if j.Status != StatusOpen || j.IsEmergency {
			t.Errorf("job = %+v, want open non-emergency", j)
		}
		if !j.Price.Equal(decimal.RequireFromString("120.50")) {
			t.Errorf("price = %s, want 120.50", j.Price)
		}
	})

	t.Run("non-positive price is rejected", func(t *testing.T) {
		for _, price := range []string{"-1", "0"} {
			_, err := svc.Create(ctx, uuid.New(), &CreateJobRequest{
				Category:    "plumbing",
				Description: "replace kitchen tap",
				Price:       price,
			})
			if !errors.Is(err, ErrInvalidPrice) {
				t.Errorf("Create(price=%s) error = %v, want ErrInvalidPrice", price, err)
			}
		}
	})
}
