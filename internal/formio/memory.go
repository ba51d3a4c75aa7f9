package formio

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBackend is an in-process FormBackend. It backs the "memory://" form
// backend URL for local development and is used by tests.
type MemoryBackend struct {
	mu          sync.RWMutex
	forms       map[string]*Form
	submissions map[string][]*Submission // by form id, in creation order
	now         func() time.Time

	// Err, when set, is returned by every call.
	Err error
	// Limit caps ListAllSubmissions. Zero means MaxSubmissions.
	Limit int
}

var _ FormBackend = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		forms:       make(map[string]*Form),
		submissions: make(map[string][]*Submission),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryBackend) ListForms(ctx context.Context, q ListQuery) ([]Form, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	forms := make([]Form, 0, len(m.forms))
	for _, f := range m.forms {
		if tag, ok := q.Filter["tags"]; ok && !containsString(f.Tags, tag) {
			continue
		}
		forms = append(forms, *f)
	}
	sort.Slice(forms, func(i, j int) bool { return forms[i].Title < forms[j].Title })
	return paginate(forms, q), nil
}

func (m *MemoryBackend) GetForm(ctx context.Context, id string) (*Form, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.forms[id]
	if !ok {
		return nil, &Error{Status: 404, Message: "Could not find the form"}
	}
	copied := *f
	return &copied, nil
}

func (m *MemoryBackend) CreateForm(ctx context.Context, form *Form) (*Form, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	created := *form
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := m.now()
	created.Created, created.Modified = &now, &now
	m.forms[created.ID] = &created
	out := created
	return &out, nil
}

func (m *MemoryBackend) UpdateForm(ctx context.Context, id string, form *Form) (*Form, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.forms[id]
	if !ok {
		return nil, &Error{Status: 404, Message: "Could not find the form"}
	}
	updated := *form
	updated.ID = id
	updated.Created = existing.Created
	now := m.now()
	updated.Modified = &now
	m.forms[id] = &updated
	out := updated
	return &out, nil
}

func (m *MemoryBackend) DeleteForm(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.forms[id]; !ok {
		return &Error{Status: 404, Message: "Could not find the form"}
	}
	delete(m.forms, id)
	delete(m.submissions, id)
	return nil
}

func (m *MemoryBackend) ListSubmissions(ctx context.Context, formID string, q ListQuery) ([]Submission, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	all, err := m.submissionsOf(formID)
	if err != nil {
		return nil, err
	}
	return paginate(all, q), nil
}

func (m *MemoryBackend) ListAllSubmissions(ctx context.Context, formID string) ([]Submission, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	all, err := m.submissionsOf(formID)
	if err != nil {
		return nil, false, err
	}
	limit := m.Limit
	if limit <= 0 {
		limit = MaxSubmissions
	}
	if len(all) > limit {
		return all[:limit], true, nil
	}
	return all, false, nil
}

func (m *MemoryBackend) submissionsOf(formID string) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.forms[formID]; !ok {
		return nil, &Error{Status: 404, Message: "Could not find the form"}
	}
	subs := make([]Submission, 0, len(m.submissions[formID]))
	for _, s := range m.submissions[formID] {
		subs = append(subs, *s)
	}
	return subs, nil
}

func (m *MemoryBackend) GetSubmission(ctx context.Context, formID, submissionID string) (*Submission, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.submissions[formID] {
		if s.ID == submissionID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, &Error{Status: 404, Message: "Could not find the submission"}
}

func (m *MemoryBackend) CreateSubmission(ctx context.Context, formID string, sub *Submission) (*Submission, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.forms[formID]; !ok {
		return nil, &Error{Status: 404, Message: "Could not find the form"}
	}
	created := *sub
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.Form = formID
	if created.State == "" {
		created.State = "submitted"
	}
	now := m.now()
	created.Created, created.Modified = &now, &now
	m.submissions[formID] = append(m.submissions[formID], &created)
	out := created
	return &out, nil
}

func (m *MemoryBackend) UpdateSubmission(ctx context.Context, formID, submissionID string, sub *Submission) (*Submission, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, s := range m.submissions[formID] {
		if s.ID == submissionID {
			updated := *sub
			updated.ID = submissionID
			updated.Form = formID
			updated.Created = s.Created
			now := m.now()
			updated.Modified = &now
			m.submissions[formID][i] = &updated
			out := updated
			return &out, nil
		}
	}
	return nil, &Error{Status: 404, Message: "Could not find the submission"}
}

func (m *MemoryBackend) Ping(ctx context.Context) error {
	return m.Err
}

func paginate[T any](items []T, q ListQuery) []T {
	if q.Skip >= len(items) {
		return []T{}
	}
	items = items[q.Skip:]
	if q.Limit > 0 && q.Limit < len(items) {
		items = items[:q.Limit]
	}
	return items
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
