package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/singleflight"

	"github.com/bgggggh/cs409-mp3/internal/cache"
	dom "github.com/bgggggh/cs409-mp3/internal/domain"
	"github.com/bgggggh/cs409-mp3/internal/query"
	"github.com/bgggggh/cs409-mp3/internal/repo"
)

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// UserInput carries the fields of a user write request. A nil PendingTasks
// means the field was absent from the body.
type UserInput struct {
	Name         string
	Email        string
	PendingTasks *[]string
}

// UserService implements user CRUD and the user-side half of reference
// synchronization: edits to pendingTasks are mirrored onto the affected
// tasks' assignedUser and assignedUserName fields.
type UserService struct {
	users repo.UserRepo
	tasks repo.TaskRepo
	cache *cache.ListCache
	sf    singleflight.Group
}

// NewUserService creates a UserService. If c is nil, list caching is disabled.
func NewUserService(users repo.UserRepo, tasks repo.TaskRepo, c *cache.ListCache) *UserService {
	return &UserService{users: users, tasks: tasks, cache: c}
}

// List runs a translated read and returns the serialized result, going
// through the cache when one is configured.
func (s *UserService) List(ctx context.Context, key string, opts query.Options) (json.RawMessage, error) {
	fetch := func() (json.RawMessage, error) {
		if opts.Projection != nil {
			docs, err := s.users.FindRaw(ctx, opts)
			if err != nil {
				return nil, err
			}
			return json.Marshal(docs)
		}
		list, err := s.users.Find(ctx, opts)
		if err != nil {
			return nil, err
		}
		return json.Marshal(list)
	}
	if s.cache == nil {
		return fetch()
	}
	v, err, _ := s.sf.Do("users:"+key, func() (interface{}, error) {
		if b, err := s.cache.Get(ctx, "users", key); err == nil && b != nil {
			return json.RawMessage(b), nil
		}
		b, err := fetch()
		if err != nil {
			return nil, err
		}
		_ = s.cache.Set(ctx, "users", key, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

func (s *UserService) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.users.Count(ctx, filter)
}

func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (dom.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dom.User{}, ErrUserNotFound
		}
		return dom.User{}, err
	}
	return u, nil
}

// GetProjected returns the raw document shaped by a select projection.
func (s *UserService) GetProjected(ctx context.Context, id primitive.ObjectID, projection bson.M) (bson.M, error) {
	doc, err := s.users.GetByIDRaw(ctx, id, projection)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *UserService) Create(ctx context.Context, in UserInput) (dom.User, error) {
	name, email, err := validateUserFields(in.Name, in.Email)
	if err != nil {
		return dom.User{}, err
	}

	pending := []primitive.ObjectID{}
	if in.PendingTasks != nil {
		pending = parseTaskIDs(*in.PendingTasks)
	}

	u, err := s.users.Insert(ctx, dom.User{
		Name:         name,
		Email:        email,
		PendingTasks: pending,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dom.User{}, ErrEmailTaken
		}
		return dom.User{}, err
	}

	s.invalidateCache(ctx)
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id primitive.ObjectID, in UserInput) (dom.User, error) {
	name, email, err := validateUserFields(in.Name, in.Email)
	if err != nil {
		return dom.User{}, err
	}

	prev, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dom.User{}, ErrUserNotFound
		}
		return dom.User{}, err
	}

	next := prev
	next.Name = name
	next.Email = email

	// An absent pendingTasks field keeps the stored list; a present one is
	// diffed against it and the affected tasks are re-pointed.
	if in.PendingTasks != nil {
		incoming := parseTaskIDs(*in.PendingTasks)

		for _, taskID := range diffIDs(prev.PendingTasks, incoming) {
			if err := s.tasks.Unassign(ctx, taskID); err != nil {
				return dom.User{}, err
			}
		}
		for _, taskID := range diffIDs(incoming, prev.PendingTasks) {
			if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
				if errors.Is(err, mongo.ErrNoDocuments) {
					continue // unknown task ids are skipped, not rejected
				}
				return dom.User{}, err
			}
			if err := s.tasks.Assign(ctx, taskID, id, name); err != nil {
				return dom.User{}, err
			}
		}
		next.PendingTasks = incoming
	}

	u, err := s.users.Replace(ctx, next)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dom.User{}, ErrUserNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return dom.User{}, ErrEmailTaken
		}
		return dom.User{}, err
	}

	// assignedUserName is a denormalized copy of the user's name, so a
	// rename has to fan out to every task still pointing here.
	if prev.Name != name {
		if err := s.tasks.RefreshAssigneeName(ctx, id, name); err != nil {
			return dom.User{}, err
		}
	}

	s.invalidateCache(ctx)
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id primitive.ObjectID) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.tasks.UnassignAll(ctx, u.PendingTasks); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	s.invalidateCache(ctx)
	return nil
}

func validateUserFields(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return "", "", ErrUserFieldsRequired
	}
	if !emailPattern.MatchString(email) {
		return "", "", ErrInvalidEmail
	}
	return name, email, nil
}

// parseTaskIDs converts hex ids, dropping duplicates and unparseable entries.
func parseTaskIDs(raw []string) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(raw))
	seen := make(map[primitive.ObjectID]bool, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// diffIDs returns the ids present in a but not in b.
func diffIDs(a, b []primitive.ObjectID) []primitive.ObjectID {
	inB := make(map[primitive.ObjectID]bool, len(b))
	for _, id := range b {
		inB[id] = true
	}
	var out []primitive.ObjectID
	for _, id := range a {
		if !inB[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s *UserService) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
}
