// Package sync holds the hard core of the provisioning engine: the
// create-vs-update reconciliation decision, the decision executor with
// per-subject serialization and bounded retry, and the batch pull
// orchestrator that drives one full directory comparison.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SpruceVedant/SCIM-Provisioning/pkg/directory"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/mapping"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/netsuite"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/subject"
)

// DirectoryClient lists subjects from the upstream identity provider.
type DirectoryClient interface {
	ListUsers(ctx context.Context) ([]directory.User, error)
}

// SubjectError records one per-subject failure inside an otherwise
// successful run.
type SubjectError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// Report summarizes one batch run. Skipped covers both subjects the run
// could not process (no email, unmappable) and subjects that needed no
// change.
type Report struct {
	RunID      string         `json:"run_id"`
	Total      int            `json:"total"`
	Created    int            `json:"created"`
	Updated    int            `json:"updated"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	Errors     []SubjectError `json:"errors,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Service is the batch pull orchestrator. One Run pulls the full subject
// list from the provider and the full employee snapshot from the ERP, then
// reconciles every subject against the snapshot.
type Service struct {
	directory DirectoryClient
	erp       ERPClient
	mapper    *mapping.Mapper
	exec      *Executor
	policy    mapping.Policy
	workers   int
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithWorkers bounds batch parallelism. The per-subject lock in the executor
// keeps concurrent writes for the same subject serialized regardless.
func WithWorkers(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithPolicy overrides the mapping policy. Batch mode defaults to
// DefaultFallback so partial directory data never stalls a run.
func WithPolicy(policy mapping.Policy) ServiceOption {
	return func(s *Service) { s.policy = policy }
}

// NewService creates the batch orchestrator.
func NewService(directoryClient DirectoryClient, erp ERPClient, mapper *mapping.Mapper, exec *Executor, opts ...ServiceOption) *Service {
	s := &Service{
		directory: directoryClient,
		erp:       erp,
		mapper:    mapper,
		exec:      exec,
		policy:    mapping.PolicyDefaultFallback,
		workers:   4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one full sync pass. Provider or snapshot failures abort the
// whole run; per-subject failures are recorded and the run continues.
// Cancelling ctx stops dispatching new subjects and returns the partial
// report alongside the context error.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	slog.Info("Sync run started", "runId", report.RunID)

	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory users: %w", err)
	}
	if len(users) == 0 {
		slog.Info("No users in directory, nothing to sync", "runId", report.RunID)
		report.FinishedAt = time.Now()
		return report, nil
	}

	// One bulk snapshot read before any write. Every reconciliation in this
	// run compares against the same point-in-time view, and the ERP sees one
	// bulk read plus O(n) writes instead of O(n) reads.
	employees, err := s.erp.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read employee snapshot: %w", err)
	}
	snapshot := make(map[string]*netsuite.Employee, len(employees))
	for i := range employees {
		emp := &employees[i]
		if email := subject.NormalizeEmail(emp.Email); email != "" {
			snapshot[email] = emp
		}
	}

	report.Total = len(users)

	var mu stdsync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, user := range users {
		if gctx.Err() != nil {
			break
		}
		user := user
		g.Go(func() error {
			outcome, subErr := s.syncOne(gctx, user, snapshot)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case subErr != nil:
				report.Failed++
				report.Errors = append(report.Errors, *subErr)
			case outcome == KindCreate:
				report.Created++
			case outcome == KindUpdate:
				report.Updated++
			default:
				report.Skipped++
			}
			return nil
		})
	}

	_ = g.Wait()
	report.FinishedAt = time.Now()

	slog.Info("Sync run finished",
		"runId", report.RunID,
		"total", report.Total,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, ctx.Err()
}

// syncOne reconciles and applies a single subject. The returned Kind is what
// actually happened: on failure it is always KindNoOp so the caller's
// counters stay consistent.
func (s *Service) syncOne(ctx context.Context, user directory.User, snapshot map[string]*netsuite.Employee) (Kind, *SubjectError) {
	sub := user.Subject()
	if sub.Email == "" {
		slog.Warn("Directory user has no email, skipping", "externalId", user.ID)
		return KindNoOp, nil
	}

	attrs, err := s.mapper.Map(sub.RawDepartment, sub.RawEmployeeType, s.policy)
	if err != nil {
		slog.Warn("Subject not mappable, skipping", "email", sub.Email, "error", err)
		return KindNoOp, nil
	}

	decision := Reconcile(sub, attrs, snapshot[sub.Email])
	if decision.Kind == KindNoOp {
		return KindNoOp, nil
	}

	if _, err := s.exec.Apply(ctx, decision); err != nil {
		slog.Error("Failed to apply sync decision", "email", sub.Email, "decision", decision.Kind.String(), "error", err)
		return KindNoOp, &SubjectError{Email: sub.Email, Error: err.Error()}
	}

	slog.Info("Subject synced", "email", sub.Email, "decision", decision.Kind.String())
	return decision.Kind, nil
}
