package console

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/meetinsight/meeting-insight/internal/meeting"
	"github.com/meetinsight/meeting-insight/internal/model"
	"github.com/meetinsight/meeting-insight/internal/platform/respond"
)

type rolesView struct {
	Roles        []model.Role     `json:"roles"`
	CompanyCount int              `json:"company_count"`
	Managers     []model.Manager  `json:"managers"`
	Customers    []model.Customer `json:"customers"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (t *Transport) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, ok := t.loadRoles(w, r)
	if !ok {
		return
	}

	companies := make(map[string]struct{})
	for _, role := range roles {
		companies[role.Company] = struct{}{}
	}

	respond.JSON(w, t.logger, http.StatusOK, rolesView{
		Roles:        roles,
		CompanyCount: len(companies),
		Managers:     meeting.DefaultManagers(),
		Customers:    meeting.DefaultCustomers(),
	})
}

func (t *Transport) handleAddRole(w http.ResponseWriter, r *http.Request) {
	role, ok := t.decodeRole(w, r)
	if !ok {
		return
	}

	t.rolesMu.Lock()
	defer t.rolesMu.Unlock()

	roles, ok := t.loadRoles(w, r)
	if !ok {
		return
	}
	if !t.saveRoles(w, r, append(roles, role)) {
		return
	}

	respond.JSON(w, t.logger, http.StatusCreated, messageResponse{Success: true, Message: "角色添加成功"})
}

func (t *Transport) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	role, ok := t.decodeRole(w, r)
	if !ok {
		return
	}

	t.rolesMu.Lock()
	defer t.rolesMu.Unlock()

	roles, ok := t.loadRoles(w, r)
	if !ok {
		return
	}
	i, ok := t.roleIndex(w, r, len(roles))
	if !ok {
		return
	}
	roles[i] = role
	if !t.saveRoles(w, r, roles) {
		return
	}

	respond.JSON(w, t.logger, http.StatusOK, messageResponse{Success: true, Message: "角色更新成功"})
}

func (t *Transport) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	t.rolesMu.Lock()
	defer t.rolesMu.Unlock()

	roles, ok := t.loadRoles(w, r)
	if !ok {
		return
	}
	i, ok := t.roleIndex(w, r, len(roles))
	if !ok {
		return
	}
	roles = append(roles[:i], roles[i+1:]...)
	if !t.saveRoles(w, r, roles) {
		return
	}

	respond.JSON(w, t.logger, http.StatusOK, messageResponse{Success: true, Message: "角色删除成功"})
}

// decodeRole reads a role body; company, name and title are all required.
func (t *Transport) decodeRole(w http.ResponseWriter, r *http.Request) (model.Role, bool) {
	var role model.Role
	if err := json.NewDecoder(r.Body).Decode(&role); err != nil {
		respond.Error(w, t.logger, http.StatusBadRequest, "Invalid JSON body.")
		return model.Role{}, false
	}

	role.Company = strings.TrimSpace(role.Company)
	role.Name = strings.TrimSpace(role.Name)
	role.Title = strings.TrimSpace(role.Title)
	if role.Company == "" || role.Name == "" || role.Title == "" {
		respond.Error(w, t.logger, http.StatusBadRequest, "company, name and title are required.")
		return model.Role{}, false
	}
	return role, true
}

func (t *Transport) roleIndex(w http.ResponseWriter, r *http.Request, n int) (int, bool) {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || i < 0 || i >= n {
		respond.Error(w, t.logger, http.StatusNotFound, "Role not found.")
		return 0, false
	}
	return i, true
}

func (t *Transport) saveRoles(w http.ResponseWriter, r *http.Request, roles []model.Role) bool {
	if err := t.deps.Roles.SaveRoles(r.Context(), roles); err != nil {
		t.storageError(w, "Failed to save roles.", err)
		return false
	}
	return true
}
