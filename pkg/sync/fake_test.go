package sync

import (
	"context"
	"fmt"
	"strconv"
	stdsync "sync"

	"github.com/SpruceVedant/SCIM-Provisioning/pkg/netsuite"
)

// fakeERP is an in-memory stand-in for the ERP employee store. Tests queue
// failures per operation with failNext.
type fakeERP struct {
	mu          stdsync.Mutex
	nextID      int
	employees   map[string]*netsuite.Employee
	failures    map[string][]error
	createCalls int
	getCalls    int
	listCalls   int
	updateCalls int
}

func newFakeERP() *fakeERP {
	return &fakeERP{
		nextID:    100,
		employees: make(map[string]*netsuite.Employee),
		failures:  make(map[string][]error),
	}
}

func (f *fakeERP) failNext(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], errs...)
}

func (f *fakeERP) popFailure(op string) error {
	queue := f.failures[op]
	if len(queue) == 0 {
		return nil
	}
	f.failures[op] = queue[1:]
	return queue[0]
}

func (f *fakeERP) seed(emp netsuite.Employee) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := emp
	f.employees[emp.ID] = &copied
}

func (f *fakeERP) get(id string) netsuite.Employee {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.employees[id]
}

func (f *fakeERP) CreateEmployee(_ context.Context, payload netsuite.EmployeePayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if err := f.popFailure("create"); err != nil {
		return "", err
	}
	f.nextID++
	id := strconv.Itoa(f.nextID)
	emp := &netsuite.Employee{
		ID:         id,
		Email:      payload.Email,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Title:      payload.Title,
		Subsidiary: payload.Subsidiary,
		Roles:      payload.Roles,
	}
	if payload.Inactive != nil {
		emp.Inactive = *payload.Inactive
	}
	f.employees[id] = emp
	return id, nil
}

func (f *fakeERP) GetEmployee(_ context.Context, id string) (*netsuite.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if err := f.popFailure("get"); err != nil {
		return nil, err
	}
	emp, ok := f.employees[id]
	if !ok {
		return nil, &netsuite.RemoteAPIError{StatusCode: 404, Body: []byte(`{"title":"Not Found"}`)}
	}
	copied := *emp
	return &copied, nil
}

func (f *fakeERP) ListEmployees(_ context.Context) ([]netsuite.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if err := f.popFailure("list"); err != nil {
		return nil, err
	}
	var all []netsuite.Employee
	for _, emp := range f.employees {
		all = append(all, *emp)
	}
	return all, nil
}

func (f *fakeERP) UpdateEmployee(_ context.Context, id string, fields netsuite.EmployeePayload) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if err := f.popFailure("update"); err != nil {
		return nil, err
	}
	emp, ok := f.employees[id]
	if !ok {
		return nil, &netsuite.RemoteAPIError{StatusCode: 404, Body: []byte(`{"title":"Not Found"}`)}
	}
	if fields.Subsidiary != nil {
		emp.Subsidiary = fields.Subsidiary
	}
	if fields.Title != "" {
		emp.Title = fields.Title
	}
	if fields.Roles != nil {
		emp.Roles = fields.Roles
	}
	if fields.Inactive != nil {
		emp.Inactive = *fields.Inactive
	}
	return []byte(fmt.Sprintf(`{"id":%q}`, id)), nil
}

func (f *fakeERP) DeactivateEmployee(ctx context.Context, id string) error {
	_, err := f.UpdateEmployee(ctx, id, netsuite.EmployeePayload{Inactive: netsuite.Bool(true)})
	return err
}
