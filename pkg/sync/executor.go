package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/SpruceVedant/SCIM-Provisioning/pkg/netsuite"
)

// ERPClient is the downstream surface the engine drives. Implemented by
// netsuite.Client; tests substitute an in-memory fake.
type ERPClient interface {
	CreateEmployee(ctx context.Context, payload netsuite.EmployeePayload) (string, error)
	GetEmployee(ctx context.Context, id string) (*netsuite.Employee, error)
	ListEmployees(ctx context.Context) ([]netsuite.Employee, error)
	UpdateEmployee(ctx context.Context, id string, fields netsuite.EmployeePayload) ([]byte, error)
	DeactivateEmployee(ctx context.Context, id string) error
}

// Result carries the outcome of applying a decision.
type Result struct {
	EmployeeID string
	Body       []byte
}

// Executor applies sync decisions against the ERP. It owns the two policies
// the client itself deliberately does not: per-subject serialization and
// bounded retry with backoff for throttling and server errors (429/5xx only;
// a 4xx is never retried).
type Executor struct {
	erp             ERPClient
	locks           *KeyedMutex
	maxRetries      uint64
	initialInterval time.Duration
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithMaxRetries bounds how many times a retryable call is reattempted.
func WithMaxRetries(n uint64) ExecutorOption {
	return func(e *Executor) { e.maxRetries = n }
}

// WithInitialInterval sets the first backoff delay. Tests shrink this.
func WithInitialInterval(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.initialInterval = d }
}

// NewExecutor creates an executor over the given ERP client.
func NewExecutor(erp ERPClient, opts ...ExecutorOption) *Executor {
	e := &Executor{
		erp:             erp,
		locks:           NewKeyedMutex(),
		maxRetries:      2,
		initialInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply executes one decision under the subject's lock.
func (e *Executor) Apply(ctx context.Context, d Decision) (Result, error) {
	if d.Kind == KindNoOp {
		return Result{EmployeeID: d.EmployeeID}, nil
	}
	unlock := e.locks.Lock(d.LockKey)
	defer unlock()
	return e.applyLocked(ctx, d)
}

// ReadModifyWrite reads the employee, lets build derive a decision from the
// current record, and applies it — all under the subject's lock. This is the
// only safe way to merge roles against a record that concurrent requests may
// also be touching.
func (e *Executor) ReadModifyWrite(ctx context.Context, id string, build func(existing *netsuite.Employee) (Decision, error)) (Result, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	var existing *netsuite.Employee
	err := e.withRetry(ctx, func() error {
		var getErr error
		existing, getErr = e.erp.GetEmployee(ctx, id)
		return getErr
	})
	if err != nil {
		return Result{}, err
	}

	d, err := build(existing)
	if err != nil {
		return Result{}, err
	}
	if d.Kind == KindNoOp {
		return Result{EmployeeID: id}, nil
	}
	return e.applyLocked(ctx, d)
}

func (e *Executor) applyLocked(ctx context.Context, d Decision) (Result, error) {
	var result Result
	err := e.withRetry(ctx, func() error {
		switch d.Kind {
		case KindCreate:
			id, err := e.erp.CreateEmployee(ctx, d.Payload)
			if err != nil {
				return err
			}
			result = Result{EmployeeID: id}
			return nil
		case KindUpdate:
			body, err := e.erp.UpdateEmployee(ctx, d.EmployeeID, d.Payload)
			if err != nil {
				return err
			}
			result = Result{EmployeeID: d.EmployeeID, Body: body}
			return nil
		case KindDeactivate:
			if err := e.erp.DeactivateEmployee(ctx, d.EmployeeID); err != nil {
				return err
			}
			result = Result{EmployeeID: d.EmployeeID}
			return nil
		default:
			return backoff.Permanent(fmt.Errorf("unknown decision kind %d", d.Kind))
		}
	})
	return result, err
}

// withRetry runs op, reattempting only throttling and server-side failures.
func (e *Executor) withRetry(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.initialInterval

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		slog.Warn("Retryable ERP failure", "attempt", attempt, "error", err)
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, e.maxRetries), ctx))
}

func retryable(err error) bool {
	var remoteErr *netsuite.RemoteAPIError
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.StatusCode == http.StatusTooManyRequests || remoteErr.StatusCode >= 500
}
