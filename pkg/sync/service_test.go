package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpruceVedant/SCIM-Provisioning/pkg/directory"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/mapping"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/netsuite"
)

type fakeDirectory struct {
	users []directory.User
	err   error
}

func (f *fakeDirectory) ListUsers(context.Context) ([]directory.User, error) {
	return f.users, f.err
}

func testService(dir DirectoryClient, erp ERPClient, opts ...ServiceOption) *Service {
	mapper := mapping.NewMapper(mapping.DefaultTables())
	exec := NewExecutor(erp, WithMaxRetries(1), WithInitialInterval(time.Millisecond))
	return NewService(dir, erp, mapper, exec, opts...)
}

func TestService_RunIsIdempotent(t *testing.T) {
	erp := newFakeERP()
	dir := &fakeDirectory{users: []directory.User{
		{ID: "u1", Mail: "A@X.com", GivenName: "Ada", Surname: "Lovelace", Department: "Think Design", JobTitle: "Admin"},
		{ID: "u2", Mail: "b@x.com", GivenName: "Bob", Surname: "Builder", Department: "Havas India", JobTitle: "Employee Center"},
	}}
	svc := testService(dir, erp)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Created)
	assert.Zero(t, report.Updated)
	assert.Zero(t, report.Failed)

	// Second pass over unchanged directory data must change nothing
	report, err = svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Created)
	assert.Zero(t, report.Updated)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 2, erp.createCalls, "no new creates on second pass")
	assert.Zero(t, erp.updateCalls, "no updates on second pass")
}

func TestService_UpdateMergesRolesAndFields(t *testing.T) {
	erp := newFakeERP()
	erp.seed(netsuite.Employee{
		ID:         "42",
		Email:      "a@x.com",
		Title:      "Admin",
		Subsidiary: &netsuite.SubsidiaryRef{ID: "1"},
		Roles:      netsuite.NewRoleList([]string{"15"}),
	})
	dir := &fakeDirectory{users: []directory.User{
		{ID: "u1", Mail: "a@x.com", GivenName: "Ada", Department: "Think Design", JobTitle: "Admin"},
	}}
	svc := testService(dir, erp)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	got := erp.get("42")
	assert.Equal(t, "8", got.SubsidiaryID())
	assert.ElementsMatch(t, []string{"15", "3"}, got.RoleIDs())
	assert.False(t, got.Inactive)
}

func TestService_DefaultFallbackForPartialData(t *testing.T) {
	erp := newFakeERP()
	dir := &fakeDirectory{users: []directory.User{
		{ID: "u1", Mail: "c@x.com", GivenName: "Cy", Department: "Unknown Dept", JobTitle: "Unknown Role"},
	}}
	svc := testService(dir, erp)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Created)

	var created netsuite.Employee
	all, _ := erp.ListEmployees(context.Background())
	require.Len(t, all, 1)
	created = all[0]
	assert.Equal(t, "1", created.SubsidiaryID(), "unmapped department falls back to the default subsidiary")
	assert.Equal(t, []string{"15"}, created.RoleIDs(), "unmapped type falls back to the default role")
}

func TestService_SubjectWithoutEmailIsSkipped(t *testing.T) {
	erp := newFakeERP()
	dir := &fakeDirectory{users: []directory.User{{ID: "u1", GivenName: "Ghost"}}}
	svc := testService(dir, erp)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, erp.createCalls)
}

func TestService_PerSubjectFailureDoesNotAbortRun(t *testing.T) {
	erp := newFakeERP()
	erp.failNext("create", &netsuite.RemoteAPIError{StatusCode: 400, Body: []byte("rejected")})
	dir := &fakeDirectory{users: []directory.User{
		{ID: "u1", Mail: "a@x.com", Department: "Think Design", JobTitle: "Admin"},
		{ID: "u2", Mail: "b@x.com", Department: "Havas India", JobTitle: "CEO"},
	}}
	svc := testService(dir, erp, WithWorkers(1))

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error, "400")
}

func TestService_DirectoryFailureIsFatal(t *testing.T) {
	erp := newFakeERP()
	dir := &fakeDirectory{err: &directory.AuthError{Err: context.DeadlineExceeded}}
	svc := testService(dir, erp)

	report, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Zero(t, erp.listCalls, "no ERP traffic without a provider token")
}

func TestService_SnapshotFailureIsFatal(t *testing.T) {
	erp := newFakeERP()
	erp.failNext("list", &netsuite.RemoteAPIError{StatusCode: 500, Body: []byte("boom")})
	dir := &fakeDirectory{users: []directory.User{{ID: "u1", Mail: "a@x.com"}}}
	svc := testService(dir, erp)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, erp.createCalls, "no writes without a snapshot")
}

func TestService_CancelledRunReturnsPartialReport(t *testing.T) {
	erp := newFakeERP()
	users := make([]directory.User, 50)
	for i := range users {
		users[i] = directory.User{ID: fmt.Sprintf("u%d", i), Mail: fmt.Sprintf("u%d@x.com", i), Department: "Think Design", JobTitle: "Admin"}
	}
	dir := &fakeDirectory{users: users}
	svc := testService(dir, erp, WithWorkers(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 50, report.Total)
	assert.Zero(t, report.Created)
	assert.Zero(t, report.Failed)
	assert.Zero(t, erp.createCalls, "no writes dispatched after cancellation")
	assert.False(t, report.FinishedAt.IsZero())
}

func TestService_NeverReactivatesDeactivated(t *testing.T) {
	erp := newFakeERP()
	erp.seed(netsuite.Employee{
		ID:       "42",
		Email:    "a@x.com",
		Inactive: true,
		Roles:    netsuite.NewRoleList([]string{"15"}),
	})
	dir := &fakeDirectory{users: []directory.User{
		{ID: "u1", Mail: "a@x.com", Department: "Think Design", JobTitle: "Admin"},
	}}
	svc := testService(dir, erp)

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.True(t, erp.get("42").Inactive)
	assert.Zero(t, erp.updateCalls)
}
