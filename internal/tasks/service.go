package tasks

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ayush/taskboard/internal/models"
)

const maxTitleLen = 250

// Store defines the interface for task persistence. Operations on an absent
// id fail with models.ErrNotFound.
type Store interface {
	CreateTask(ctx context.Context, t *models.Task) (*models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, title, body string) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Policy decides which tasks an authenticated user may see and change.
type Policy int

const (
	// AnyAuthenticated lets every logged-in user read and modify every task.
	AnyAuthenticated Policy = iota
	// OwnerOnly hides other users' tasks; they behave as if absent.
	OwnerOnly
)

// ParsePolicy maps the TASK_ACCESS setting onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "any":
		return AnyAuthenticated, nil
	case "owner":
		return OwnerOnly, nil
	default:
		return 0, fmt.Errorf("unknown task access policy %q", s)
	}
}

func (p Policy) String() string {
	if p == OwnerOnly {
		return "owner"
	}
	return "any"
}

// Service applies validation and the access policy on top of a Store.
type Service struct {
	store  Store
	policy Policy
}

func NewService(store Store, policy Policy) *Service {
	return &Service{store: store, policy: policy}
}

// Create stores a new task owned by owner.
func (s *Service) Create(ctx context.Context, owner *models.User, title, body string) (*models.Task, error) {
	if owner == nil {
		return nil, models.ErrUnauthenticated
	}
	title, body, err := clean(title, body)
	if err != nil {
		return nil, err
	}
	return s.store.CreateTask(ctx, &models.Task{
		AuthorID:   owner.ID,
		AuthorName: owner.Name,
		Title:      title,
		Body:       body,
	})
}

// List returns the tasks visible to viewer in creation order.
func (s *Service) List(ctx context.Context, viewer *models.User) ([]models.Task, error) {
	if viewer == nil {
		return nil, models.ErrUnauthenticated
	}
	all, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	if s.policy == AnyAuthenticated {
		return all, nil
	}
	own := make([]models.Task, 0, len(all))
	for _, t := range all {
		if t.OwnedBy(viewer) {
			own = append(own, t)
		}
	}
	return own, nil
}

// Get returns task id if viewer may see it.
func (s *Service) Get(ctx context.Context, viewer *models.User, id int64) (*models.Task, error) {
	if viewer == nil {
		return nil, models.ErrUnauthenticated
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.policy == OwnerOnly && !t.OwnedBy(viewer) {
		return nil, fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	return t, nil
}

// Update replaces the title and body of task id.
func (s *Service) Update(ctx context.Context, viewer *models.User, id int64, title, body string) (*models.Task, error) {
	title, body, err := clean(title, body)
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return nil, err
	}
	return s.store.UpdateTask(ctx, id, title, body)
}

// Delete removes task id. Deleting an absent task fails with ErrNotFound.
func (s *Service) Delete(ctx context.Context, viewer *models.User, id int64) error {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return err
	}
	return s.store.DeleteTask(ctx, id)
}

func clean(title, body string) (string, string, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" || utf8.RuneCountInString(title) > maxTitleLen {
		return "", "", models.ErrInvalidTask
	}
	return title, body, nil
}
