package results

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/zfogg/formdesk/internal/auth"
	apperrors "github.com/zfogg/formdesk/internal/errors"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/repository"
	"golang.org/x/sync/errgroup"
)

var ErrFormNotFound = errors.New("form not found")

// Service loads a form's tasks and submissions and aggregates them for the
// acting user.
type Service struct {
	tasks repository.TaskRepository
	users repository.UserRepository
	forms formio.FormBackend
}

func NewService(tasks repository.TaskRepository, users repository.UserRepository, forms formio.FormBackend) *Service {
	return &Service{tasks: tasks, users: users, forms: forms}
}

// Results returns one page of a form's results. Users without results:all
// only see rows for their own tasks and never see orphans.
func (s *Service) Results(ctx context.Context, actor *models.User, formID string, q Query) (*Page, error) {
	data, q, err := s.load(ctx, actor, formID, q)
	if err != nil {
		return nil, err
	}
	page, err := Aggregate(data.tasks, data.submissions, data.users, q)
	if err != nil {
		return nil, sortError(err)
	}
	page.Truncated = data.truncated
	return page, nil
}

// RowSet is every filtered row of one form's results.
type RowSet struct {
	Form      *formio.Form
	Rows      []Row
	Truncated bool
}

// Rows returns every filtered row of a form's results in sorted order.
func (s *Service) Rows(ctx context.Context, actor *models.User, formID string, q Query) (*RowSet, error) {
	data, q, err := s.load(ctx, actor, formID, q)
	if err != nil {
		return nil, err
	}
	rows, err := Collect(data.tasks, data.submissions, data.users, q)
	if err != nil {
		return nil, sortError(err)
	}
	return &RowSet{Form: data.form, Rows: rows, Truncated: data.truncated}, nil
}

type formData struct {
	form        *formio.Form
	tasks       []*models.Task
	submissions []formio.Submission
	users       []*models.User
	truncated   bool
}

func (s *Service) load(ctx context.Context, actor *models.User, formID string, q Query) (*formData, Query, error) {
	if err := auth.Authorize(actor, auth.PermResultsRead); err != nil {
		return nil, q, err
	}
	assigneeID := ""
	if !auth.Allows(actor.Role, auth.PermResultsAll) {
		assigneeID = actor.ID
		q.AssigneeID = actor.ID
		q.IncludeOrphans = false
	}
	if _, err := comparator(q.Normalize().Sort); err != nil {
		return nil, q, sortError(err)
	}

	data := &formData{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		form, err := s.forms.GetForm(gctx, formID)
		if err != nil {
			return err
		}
		data.form = form
		return nil
	})
	g.Go(func() error {
		tasks, err := s.tasks.ListFormTasks(gctx, formID, assigneeID)
		if err != nil {
			return err
		}
		data.tasks = tasks
		return nil
	})
	g.Go(func() error {
		subs, truncated, err := s.forms.ListAllSubmissions(gctx, formID)
		if err != nil {
			return err
		}
		data.submissions = subs
		data.truncated = truncated
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, formio.ErrNotFound) {
			return nil, q, ErrFormNotFound
		}
		var fe *formio.Error
		if errors.As(err, &fe) {
			return nil, q, apperrors.Upstream("form backend", err)
		}
		return nil, q, err
	}

	if q.IncludeOrphans {
		users, err := s.orphanOwners(ctx, data.tasks, data.submissions)
		if err != nil {
			return nil, q, err
		}
		data.users = users
	}
	return data, q, nil
}

// orphanOwners loads the owners of submissions no task claims. Owners that
// are not local account ids are left unresolved.
func (s *Service) orphanOwners(ctx context.Context, tasks []*models.Task, subs []formio.Submission) ([]*models.User, error) {
	claimed := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.SubmissionID != nil {
			claimed[*t.SubmissionID] = true
		}
	}
	seen := make(map[string]bool)
	var ids []string
	for _, sub := range subs {
		if claimed[sub.ID] || seen[sub.Owner] || uuid.Validate(sub.Owner) != nil {
			continue
		}
		seen[sub.Owner] = true
		ids = append(ids, sub.Owner)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.users.GetUsers(ctx, ids)
}

func sortError(err error) error {
	if errors.Is(err, ErrInvalidSort) {
		return apperrors.ValidationError("sort", err.Error())
	}
	return err
}
