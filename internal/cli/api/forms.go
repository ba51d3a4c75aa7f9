package api

import (
	"net/url"
	"strconv"

	"github.com/zfogg/formdesk/internal/cli/client"
)

// Page selects a window of a list endpoint. Zero values use the server
// defaults.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(v url.Values) url.Values {
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v
}

// setIf adds key only when value is not empty.
func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func ListForms(tag string, page Page) (*FormListResponse, error) {
	q := page.apply(url.Values{})
	setIf(q, "tag", tag)

	var out FormListResponse
	resp, err := client.GetClient().R().
		SetQueryParamsFromValues(q).
		Get("/api/v1/forms")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func GetForm(id string) (*Form, error) {
	var out struct {
		Form Form `json:"form"`
	}
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Get("/api/v1/forms/{id}")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Form, nil
}

func CreateForm(req FormRequest) (*Form, error) {
	var out struct {
		Form Form `json:"form"`
	}
	resp, err := client.GetClient().R().
		SetBody(req).
		Post("/api/v1/forms")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Form, nil
}

func UpdateForm(id string, req FormRequest) (*Form, error) {
	var out struct {
		Form Form `json:"form"`
	}
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		SetBody(req).
		Put("/api/v1/forms/{id}")
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Form, nil
}

func DeleteForm(id string) error {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Delete("/api/v1/forms/{id}")
	return decode(resp, err, nil)
}
