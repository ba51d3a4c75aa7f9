package api

import (
	"net/url"

	"github.com/zfogg/formdesk/internal/cli/client"
)

type UserFilter struct {
	Search   string
	Role     string // comma separated
	Active   *bool
	Ordering string
	Page     Page
}

func (f UserFilter) values() url.Values {
	q := f.Page.apply(url.Values{})
	setIf(q, "search", f.Search)
	setIf(q, "role", f.Role)
	setIf(q, "ordering", f.Ordering)
	if f.Active != nil {
		if *f.Active {
			q.Set("is_active", "true")
		} else {
			q.Set("is_active", "false")
		}
	}
	return q
}

func ListUsers(filter UserFilter) (*UserListResponse, error) {
	var out UserListResponse
	resp, err := client.GetClient().R().
		SetQueryParamsFromValues(filter.values()).
		Get("/api/v1/users")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type userEnvelope struct {
	User User `json:"user"`
}

func GetUser(id string) (*User, error) {
	var out userEnvelope
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Get("/api/v1/users/{id}")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// CreateUser provisions an account. The response carries the generated
// password when none was given.
func CreateUser(req CreateUserRequest) (*CreateUserResponse, error) {
	var out CreateUserResponse
	resp, err := client.GetClient().R().
		SetBody(req).
		Post("/api/v1/users")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func SetUserRole(id, role string) (*User, error) {
	var out userEnvelope
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		SetBody(map[string]string{"role": role}).
		Put("/api/v1/users/{id}/role")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// SetUserActive activates or deactivates an account.
func SetUserActive(id string, active bool) (*User, error) {
	path := "/api/v1/users/{id}/deactivate"
	if active {
		path = "/api/v1/users/{id}/activate"
	}

	var out userEnvelope
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Post(path)
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func DeleteUser(id string) error {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Delete("/api/v1/users/{id}")
	return decode(resp, err, nil)
}
