package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/cautelas/internal/auth"
	"github.com/erazemk/cautelas/internal/model"
	"github.com/erazemk/cautelas/internal/store"
)

// resetPasswordLength is the length of passwords generated on reset.
const resetPasswordLength = 12

// UsersHandler handles user management endpoints.
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	model.UserProfile
	Password string `json:"password"`
}

// updateUserRequest carries a partial profile; nil fields are left as they are.
type updateUserRequest struct {
	Email                *string     `json:"email"`
	Name                 *string     `json:"name"`
	Role                 *model.Role `json:"role"`
	Phone                *string     `json:"phone"`
	Document             *string     `json:"document"`
	Rank                 *string     `json:"rank"`
	WarName              *string     `json:"war_name"`
	MilitaryOrganization *string     `json:"military_organization"`
	FunctionName         *string     `json:"function_name"`
}

func (req updateUserRequest) apply(u *model.User) model.UserProfile {
	p := model.UserProfile{
		Email:                u.Email,
		Name:                 u.Name,
		Role:                 u.Role,
		Phone:                u.Phone,
		Document:             u.Document,
		Rank:                 u.Rank,
		WarName:              u.WarName,
		MilitaryOrganization: u.MilitaryOrganization,
		FunctionName:         u.FunctionName,
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Email, req.Email)
	set(&p.Name, req.Name)
	set(&p.Phone, req.Phone)
	set(&p.Document, req.Document)
	set(&p.Rank, req.Rank)
	set(&p.WarName, req.WarName)
	set(&p.MilitaryOrganization, req.MilitaryOrganization)
	set(&p.FunctionName, req.FunctionName)
	if req.Role != nil {
		p.Role = *req.Role
	}
	return p
}

// canGrant reports whether the caller may hand out role. Only super admins
// create or promote other super admins.
func canGrant(claims *auth.Claims, role model.Role) bool {
	if role == model.RoleSuperAdmin {
		return claims != nil && model.IsSuperAdmin(claims.Role)
	}
	return true
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, "list users", err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" || req.Password == "" || req.Role == "" {
		jsonError(w, http.StatusBadRequest, "name, email, password, and role required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		jsonError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if !req.Role.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	claims := GetClaims(r.Context())
	if !canGrant(claims, req.Role) {
		jsonError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		storeError(w, r, "hash password", err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.UserProfile, string(hash))
	if err != nil {
		storeError(w, r, "create user", err)
		return
	}

	slog.Info("user created", "user", claims.Email, "new_user", user.Email, "role", user.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, "get user", err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	jsonResponse(w, http.StatusOK, user)
}

// Update handles PATCH /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, "update user", err)
		return
	}
	if current == nil || current.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	claims := GetClaims(r.Context())
	if protected(claims, current) {
		jsonError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	profile := req.apply(current)
	if profile.Email == "" || profile.Name == "" {
		jsonError(w, http.StatusBadRequest, "name and email required")
		return
	}
	if !profile.Role.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if profile.Role != current.Role && !canGrant(claims, profile.Role) {
		jsonError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	user, err := store.UpdateUser(r.Context(), h.DB, id, profile)
	if err != nil {
		storeError(w, r, "update user", err)
		return
	}

	slog.Info("user updated", "user", claims.Email, "target_user", user.Email, "role", user.Role)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PATCH /api/users/{id}/reset-password. The generated
// password is returned once and never stored in clear.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	claims := GetClaims(r.Context())
	target, ok := h.loadTarget(w, r, claims, id)
	if !ok {
		return
	}

	password, err := auth.GeneratePassword(resetPasswordLength)
	if err != nil {
		storeError(w, r, "reset password", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		storeError(w, r, "hash password", err)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, id, string(hash)); err != nil {
		storeError(w, r, "reset password", err)
		return
	}

	slog.Info("user password reset", "user", claims.Email, "target_user", target.Email)
	jsonResponse(w, http.StatusOK, map[string]any{
		"success":      true,
		"new_password": password,
		"user":         target,
	})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	claims := GetClaims(r.Context())
	if claims != nil && claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	target, ok := h.loadTarget(w, r, claims, id)
	if !ok {
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		storeError(w, r, "delete user", err)
		return
	}

	slog.Info("user deleted", "user", claims.Email, "deleted_user", target.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// protected reports whether target is out of reach for the caller. Only a
// super admin may modify another super admin.
func protected(claims *auth.Claims, target *model.User) bool {
	return target.Role == model.RoleSuperAdmin && (claims == nil || !model.IsSuperAdmin(claims.Role))
}

// loadTarget fetches the live user id for a mutating handler, writing the
// error response and returning false when the caller may not act on it.
func (h *UsersHandler) loadTarget(w http.ResponseWriter, r *http.Request, claims *auth.Claims, id int64) (*model.User, bool) {
	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, "get user", err)
		return nil, false
	}
	if target == nil || target.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	if protected(claims, target) {
		jsonError(w, http.StatusUnauthorized, "not authorized")
		return nil, false
	}
	return target, true
}
