package firebase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/quanlytn/resource-portal/internal/core/domain"
)

const (
	pathUserRoles    = "userRoles"
	pathUserProfiles = "userProfiles"
)

// UserRepository reads the userRoles mapping and writes userProfiles
// records. Both live next to the resources collection in the same store.
type UserRepository struct {
	client *Client
}

func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

// GetUserRole returns the normalized lowercase role for uid, or "" when no
// role is assigned. The mapping historically stored either a bare string
// ("admin") or an object ({"role": "admin"}); both shapes are accepted.
func (r *UserRepository) GetUserRole(ctx context.Context, authToken, uid string) (string, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", nil
	}

	var raw json.RawMessage
	if err := r.client.do(ctx, http.MethodGet, pathUserRoles+"/"+uid, authToken, nil, &raw); err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return normalizeRole(asString), nil
	}

	var asObject struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return normalizeRole(asObject.Role), nil
	}
	return "", nil
}

func normalizeRole(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Upsert merge-patches the caller's own profile record. The backend keeps
// any fields the payload does not name.
func (r *UserRepository) Upsert(ctx context.Context, authToken string, profile *domain.Profile) error {
	if profile == nil || strings.TrimSpace(profile.UID) == "" {
		return domain.ErrInvalidCredentials
	}

	payload := map[string]any{
		"uid":         profile.UID,
		"username":    profile.Username,
		"email":       profile.Email,
		"lastLoginAt": formatTime(profile.LastLoginAt),
	}
	return r.client.do(ctx, http.MethodPatch, pathUserProfiles+"/"+profile.UID, authToken, payload, nil)
}
