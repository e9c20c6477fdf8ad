package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/singleflight"

	"github.com/bgggggh/cs409-mp3/internal/cache"
	dom "github.com/bgggggh/cs409-mp3/internal/domain"
	"github.com/bgggggh/cs409-mp3/internal/query"
	"github.com/bgggggh/cs409-mp3/internal/repo"
)

// TaskInput carries the validated-shape fields of a task write request.
// AssignedUser is a user id in hex, empty when unassigned.
type TaskInput struct {
	Name         string
	Description  string
	Deadline     time.Time
	Completed    bool
	AssignedUser string
}

// TaskService implements task CRUD and the task-side half of reference
// synchronization: whenever assignedUser or completed changes, the affected
// users' pendingTasks lists are updated to match.
//
// The sub-steps of one logical update are separate store writes with no
// transaction around them; a crash mid-sequence can leave a dangling
// reference. Accepted limitation, see DESIGN.md.
type TaskService struct {
	tasks repo.TaskRepo
	users repo.UserRepo
	cache *cache.ListCache
	sf    singleflight.Group
}

// NewTaskService creates a TaskService. If c is nil, list caching is disabled.
func NewTaskService(tasks repo.TaskRepo, users repo.UserRepo, c *cache.ListCache) *TaskService {
	return &TaskService{tasks: tasks, users: users, cache: c}
}

// List runs a translated read and returns the serialized result, going
// through the cache when one is configured. key identifies the request
// (the raw query string) for caching and singleflight deduplication.
func (s *TaskService) List(ctx context.Context, key string, opts query.Options) (json.RawMessage, error) {
	fetch := func() (json.RawMessage, error) {
		if opts.Projection != nil {
			docs, err := s.tasks.FindRaw(ctx, opts)
			if err != nil {
				return nil, err
			}
			return json.Marshal(docs)
		}
		list, err := s.tasks.Find(ctx, opts)
		if err != nil {
			return nil, err
		}
		return json.Marshal(list)
	}
	if s.cache == nil {
		return fetch()
	}
	v, err, _ := s.sf.Do("tasks:"+key, func() (interface{}, error) {
		if b, err := s.cache.Get(ctx, "tasks", key); err == nil && b != nil {
			return json.RawMessage(b), nil
		}
		b, err := fetch()
		if err != nil {
			return nil, err
		}
		_ = s.cache.Set(ctx, "tasks", key, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// Count returns the cardinality of the filtered set, ignoring pagination.
func (s *TaskService) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.tasks.Count(ctx, filter)
}

func (s *TaskService) Get(ctx context.Context, id primitive.ObjectID) (dom.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dom.Task{}, ErrTaskNotFound
		}
		return dom.Task{}, err
	}
	return t, nil
}

// GetProjected returns the raw document shaped by a select projection.
func (s *TaskService) GetProjected(ctx context.Context, id primitive.ObjectID, projection bson.M) (bson.M, error) {
	doc, err := s.tasks.GetByIDRaw(ctx, id, projection)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *TaskService) Create(ctx context.Context, in TaskInput) (dom.Task, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Deadline.IsZero() {
		return dom.Task{}, ErrTaskFieldsRequired
	}

	userID, userName, err := s.resolveAssignee(ctx, in.AssignedUser)
	if err != nil {
		return dom.Task{}, err
	}

	t, err := s.tasks.Insert(ctx, dom.Task{
		Name:             in.Name,
		Description:      in.Description,
		Deadline:         in.Deadline,
		Completed:        in.Completed,
		AssignedUser:     userID,
		AssignedUserName: userName,
	})
	if err != nil {
		return dom.Task{}, err
	}

	if t.Pending() {
		if err := s.users.AddPendingTask(ctx, *userID, t.ID); err != nil {
			return dom.Task{}, err
		}
	}

	s.invalidateCache(ctx)
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, id primitive.ObjectID, in TaskInput) (dom.Task, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Deadline.IsZero() {
		return dom.Task{}, ErrTaskFieldsRequired
	}

	prev, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dom.Task{}, ErrTaskNotFound
		}
		return dom.Task{}, err
	}

	// Resolve before touching anything so an unknown assignee leaves both
	// collections unchanged.
	userID, userName, err := s.resolveAssignee(ctx, in.AssignedUser)
	if err != nil {
		return dom.Task{}, err
	}

	next := dom.Task{
		ID:               id,
		Name:             in.Name,
		Description:      in.Description,
		Deadline:         in.Deadline,
		Completed:        in.Completed,
		AssignedUser:     userID,
		AssignedUserName: userName,
		DateCreated:      prev.DateCreated,
	}

	// A task belongs in pendingTasks exactly while assigned and incomplete.
	// Compare the stored state with the incoming one and patch both sides.
	wasPending := prev.Pending()
	willPending := next.Pending()
	sameUser := prev.AssignedUser != nil && userID != nil && *prev.AssignedUser == *userID

	if wasPending && (!willPending || !sameUser) {
		if err := s.users.RemovePendingTask(ctx, *prev.AssignedUser, id); err != nil {
			return dom.Task{}, err
		}
	}
	if willPending && (!wasPending || !sameUser) {
		if err := s.users.AddPendingTask(ctx, *userID, id); err != nil {
			return dom.Task{}, err
		}
	}

	t, err := s.tasks.Replace(ctx, next)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dom.Task{}, ErrTaskNotFound
		}
		return dom.Task{}, err
	}

	s.invalidateCache(ctx)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id primitive.ObjectID) error {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTaskNotFound
		}
		return err
	}

	if t.Pending() {
		if err := s.users.RemovePendingTask(ctx, *t.AssignedUser, id); err != nil {
			return err
		}
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTaskNotFound
		}
		return err
	}

	s.invalidateCache(ctx)
	return nil
}

// resolveAssignee maps an assignedUser request value to (id, name). Empty
// means unassigned; an unparseable or unknown id is a client error.
func (s *TaskService) resolveAssignee(ctx context.Context, raw string) (*primitive.ObjectID, string, error) {
	if raw == "" {
		return nil, dom.UnassignedName, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, "", ErrAssignedUserNotFound
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", ErrAssignedUserNotFound
		}
		return nil, "", err
	}
	return &u.ID, u.Name, nil
}

func (s *TaskService) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
}
