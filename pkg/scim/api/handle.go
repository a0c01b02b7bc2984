package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/SpruceVedant/SCIM-Provisioning/pkg/mapping"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/netsuite"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/scim"
	"github.com/SpruceVedant/SCIM-Provisioning/pkg/sync"
)

// ProvisioningHandler handles inbound SCIM push requests for employee
// provisioning.
type ProvisioningHandler struct {
	mapper   *mapping.Mapper
	executor *sync.Executor
}

// NewProvisioningHandler creates a new provisioning handler.
func NewProvisioningHandler(mapper *mapping.Mapper, executor *sync.Executor) *ProvisioningHandler {
	return &ProvisioningHandler{
		mapper:   mapper,
		executor: executor,
	}
}

// CreateUserResponse represents the response body for a provisioned user.
type CreateUserResponse struct {
	ID   string       `json:"id"`
	Meta ResourceMeta `json:"meta"`
}

// ResourceMeta carries the SCIM meta attribute of a provisioned resource.
type ResourceMeta struct {
	ResourceType string `json:"resourceType"`
	Location     string `json:"location"`
}

// UpdateUserResponse represents the response body for an update that
// produced no downstream change.
type UpdateUserResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
}

// RegisterRoutes registers the SCIM provisioning routes. Both /Users and
// /Users/Users are served: some identity providers append the resource path
// to a tenant URL that already ends in /Users.
func (h *ProvisioningHandler) RegisterRoutes(r chi.Router) {
	for _, base := range []string{"/Users", "/Users/Users"} {
		r.Get(base, h.List)
		r.Post(base, h.Create)
		r.Patch(base+"/{employeeID}", h.Update)
		r.Delete(base+"/{employeeID}", h.Deactivate)
	}
}

// List handles connectivity probes from the identity provider. The bridge
// does not serve SCIM queries, so the response is always an empty list.
func (h *ProvisioningHandler) List(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, scim.EmptyListResponse())
}

// Create handles pushing a new user into the ERP.
func (h *ProvisioningHandler) Create(w http.ResponseWriter, r *http.Request) {
	var user scim.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		renderErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub := user.Subject()
	if sub.Email == "" {
		renderErrorResponse(w, r, http.StatusBadRequest, "Missing required field: userName")
		return
	}

	attrs, err := h.mapper.Map(sub.RawDepartment, sub.RawEmployeeType, mapping.PolicyStrict)
	if err != nil {
		slog.Error("Rejected user with unmapped attributes", "email", sub.Email, "error", err)
		renderErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.executor.Apply(r.Context(), sync.Reconcile(sub, attrs, nil))
	if err != nil {
		slog.Error("Failed to create employee", "email", sub.Email, "error", err)
		renderRemoteError(w, r, err)
		return
	}

	slog.Info("Provisioned employee", "email", sub.Email, "id", result.EmployeeID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CreateUserResponse{
		ID: result.EmployeeID,
		Meta: ResourceMeta{
			ResourceType: "User",
			Location:     "/Users/" + result.EmployeeID,
		},
	})
}

// Update handles a partial update pushed for an existing employee. The
// employee record is re-read under the subject's lock so role additions from
// concurrent requests are never lost, and roles are only ever added.
func (h *ProvisioningHandler) Update(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	var user scim.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		renderErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub := user.Subject()
	var attrs mapping.Attributes
	if id, ok := h.mapper.LookupSubsidiary(sub.RawDepartment); ok {
		attrs.SubsidiaryID = id
	}
	if roles, ok := h.mapper.LookupRoles(sub.RawEmployeeType); ok {
		attrs.RoleIDs = roles
	}

	result, err := h.executor.ReadModifyWrite(r.Context(), employeeID, func(existing *netsuite.Employee) (sync.Decision, error) {
		return sync.Reconcile(sub, attrs, existing), nil
	})
	if err != nil {
		slog.Error("Failed to update employee", "id", employeeID, "error", err)
		renderRemoteError(w, r, err)
		return
	}

	if len(result.Body) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(result.Body)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, UpdateUserResponse{ID: employeeID, Status: "success"})
}

// Deactivate handles deprovisioning. The employee is marked inactive rather
// than deleted, and never re-activated afterwards.
func (h *ProvisioningHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	if _, err := h.executor.Apply(r.Context(), sync.Deactivate(employeeID)); err != nil {
		slog.Error("Failed to deactivate employee", "id", employeeID, "error", err)
		renderRemoteError(w, r, err)
		return
	}

	slog.Info("Deactivated employee", "id", employeeID)
	render.NoContent(w, r)
}

func renderErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Status:  "failure",
		Message: message,
	})
}

// renderRemoteError maps a downstream failure onto the response. The raw ERP
// error body is passed through so provisioning logs on the provider side show
// the real cause.
func renderRemoteError(w http.ResponseWriter, r *http.Request, err error) {
	var remote *netsuite.RemoteAPIError
	if errors.As(err, &remote) && json.Valid(remote.Body) {
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{
			Status: "failure",
			Error:  json.RawMessage(remote.Body),
		})
		return
	}
	renderErrorResponse(w, r, http.StatusInternalServerError, err.Error())
}
