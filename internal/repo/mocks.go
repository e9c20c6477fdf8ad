package repo

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	dom "github.com/bgggggh/cs409-mp3/internal/domain"
	"github.com/bgggggh/cs409-mp3/internal/query"
)

// MockTaskRepo is a testify mock of TaskRepo for service and handler tests.
type MockTaskRepo struct {
	mock.Mock
}

func (m *MockTaskRepo) Find(ctx context.Context, opts query.Options) ([]dom.Task, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dom.Task), args.Error(1)
}

func (m *MockTaskRepo) FindRaw(ctx context.Context, opts query.Options) ([]bson.M, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bson.M), args.Error(1)
}

func (m *MockTaskRepo) Count(ctx context.Context, filter bson.M) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTaskRepo) GetByID(ctx context.Context, id primitive.ObjectID) (dom.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(dom.Task), args.Error(1)
}

func (m *MockTaskRepo) GetByIDRaw(ctx context.Context, id primitive.ObjectID, projection bson.M) (bson.M, error) {
	args := m.Called(ctx, id, projection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(bson.M), args.Error(1)
}

func (m *MockTaskRepo) Insert(ctx context.Context, t dom.Task) (dom.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(dom.Task), args.Error(1)
}

func (m *MockTaskRepo) Replace(ctx context.Context, t dom.Task) (dom.Task, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(dom.Task), args.Error(1)
}

func (m *MockTaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepo) Assign(ctx context.Context, taskID, userID primitive.ObjectID, userName string) error {
	args := m.Called(ctx, taskID, userID, userName)
	return args.Error(0)
}

func (m *MockTaskRepo) Unassign(ctx context.Context, taskID primitive.ObjectID) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockTaskRepo) UnassignAll(ctx context.Context, taskIDs []primitive.ObjectID) error {
	args := m.Called(ctx, taskIDs)
	return args.Error(0)
}

func (m *MockTaskRepo) RefreshAssigneeName(ctx context.Context, userID primitive.ObjectID, userName string) error {
	args := m.Called(ctx, userID, userName)
	return args.Error(0)
}

// MockUserRepo is a testify mock of UserRepo.
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Find(ctx context.Context, opts query.Options) ([]dom.User, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dom.User), args.Error(1)
}

func (m *MockUserRepo) FindRaw(ctx context.Context, opts query.Options) ([]bson.M, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bson.M), args.Error(1)
}

func (m *MockUserRepo) Count(ctx context.Context, filter bson.M) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (dom.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(dom.User), args.Error(1)
}

func (m *MockUserRepo) GetByIDRaw(ctx context.Context, id primitive.ObjectID, projection bson.M) (bson.M, error) {
	args := m.Called(ctx, id, projection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(bson.M), args.Error(1)
}

func (m *MockUserRepo) Insert(ctx context.Context, u dom.User) (dom.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(dom.User), args.Error(1)
}

func (m *MockUserRepo) Replace(ctx context.Context, u dom.User) (dom.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(dom.User), args.Error(1)
}

func (m *MockUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepo) AddPendingTask(ctx context.Context, userID, taskID primitive.ObjectID) error {
	args := m.Called(ctx, userID, taskID)
	return args.Error(0)
}

func (m *MockUserRepo) RemovePendingTask(ctx context.Context, userID, taskID primitive.ObjectID) error {
	args := m.Called(ctx, userID, taskID)
	return args.Error(0)
}
