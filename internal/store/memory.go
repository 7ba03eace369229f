package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ayush/taskboard/internal/models"
)

// MemoryStore keeps users and tasks in process memory. It satisfies the same
// contracts as the database stores, including email uniqueness.
type MemoryStore struct {
	mu sync.RWMutex

	nextUserID int64
	nextTaskID int64

	users   map[int64]models.User
	byEmail map[string]int64
	tasks   map[int64]models.Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextUserID: 1,
		nextTaskID: 1,
		users:      make(map[int64]models.User),
		byEmail:    make(map[string]int64),
		tasks:      make(map[int64]models.Task),
	}
}

func emailKey(email string) string {
	return strings.ToLower(email)
}

// Users

func (m *MemoryStore) CreateUser(_ context.Context, name, email, passwordHash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byEmail[emailKey(email)]; taken {
		return nil, models.ErrEmailTaken
	}

	u := models.User{
		ID:        m.nextUserID,
		Name:      name,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: time.Now().UTC(),
	}
	m.nextUserID++
	m.users[u.ID] = u
	m.byEmail[emailKey(email)] = u.ID
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[emailKey(email)]
	if !ok {
		return nil, fmt.Errorf("get user by email: %w", models.ErrNotFound)
	}
	u := m.users[id]
	return &u, nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %d: %w", id, models.ErrNotFound)
	}
	return &u, nil
}

func (m *MemoryStore) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("update password %d: %w", id, models.ErrNotFound)
	}
	u.Password = passwordHash
	m.users[id] = u
	return nil
}

// Tasks

func (m *MemoryStore) CreateTask(_ context.Context, t *models.Task) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	author, ok := m.users[t.AuthorID]
	if !ok {
		return nil, fmt.Errorf("task author %d: %w", t.AuthorID, models.ErrNotFound)
	}

	out := *t
	out.ID = m.nextTaskID
	out.AuthorName = author.Name
	out.CreatedAt = time.Now().UTC()
	m.nextTaskID++
	m.tasks[out.ID] = out
	return &out, nil
}

func (m *MemoryStore) ListTasks(_ context.Context) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetTask(_ context.Context, id int64) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("get task %d: %w", id, models.ErrNotFound)
	}
	return &t, nil
}

func (m *MemoryStore) UpdateTask(_ context.Context, id int64, title, body string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("update task %d: %w", id, models.ErrNotFound)
	}
	t.Title = title
	t.Body = body
	m.tasks[id] = t
	return &t, nil
}

func (m *MemoryStore) DeleteTask(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tasks[id]; !ok {
		return fmt.Errorf("delete task %d: %w", id, models.ErrNotFound)
	}
	delete(m.tasks, id)
	return nil
}
