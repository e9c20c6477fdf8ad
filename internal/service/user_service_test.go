package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	dom "github.com/bgggggh/cs409-mp3/internal/domain"
	"github.com/bgggggh/cs409-mp3/internal/repo"
	"github.com/bgggggh/cs409-mp3/internal/service"
)

func newUserService() (*service.UserService, *repo.MockUserRepo, *repo.MockTaskRepo) {
	users := new(repo.MockUserRepo)
	tasks := new(repo.MockTaskRepo)
	return service.NewUserService(users, tasks, nil), users, tasks
}

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func TestUserCreateNormalizesEmail(t *testing.T) {
	svc, users, _ := newUserService()
	ctx := context.Background()

	id := primitive.NewObjectID()
	users.On("Insert", mock.Anything, mock.MatchedBy(func(in dom.User) bool {
		return in.Email == "alice@example.com" && in.Name == "Alice"
	})).Return(dom.User{ID: id, Name: "Alice", Email: "alice@example.com"}, nil).Once()

	created, err := svc.Create(ctx, service.UserInput{Name: " Alice ", Email: "  ALICE@Example.COM "})
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)
	users.AssertExpectations(t)
}

func TestUserCreateValidation(t *testing.T) {
	svc, users, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Create(ctx, service.UserInput{Name: "", Email: "a@b.com"})
	assert.ErrorIs(t, err, service.ErrUserFieldsRequired)

	_, err = svc.Create(ctx, service.UserInput{Name: "Alice", Email: ""})
	assert.ErrorIs(t, err, service.ErrUserFieldsRequired)

	_, err = svc.Create(ctx, service.UserInput{Name: "Alice", Email: "not-an-email"})
	assert.ErrorIs(t, err, service.ErrInvalidEmail)

	users.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	svc, users, _ := newUserService()
	ctx := context.Background()

	users.On("Insert", mock.Anything, mock.Anything).Return(dom.User{}, duplicateKeyErr()).Once()

	_, err := svc.Create(ctx, service.UserInput{Name: "Alice", Email: "alice@example.com"})
	assert.ErrorIs(t, err, service.ErrEmailTaken)
}

func TestUserCreateDedupesPendingTasks(t *testing.T) {
	svc, users, _ := newUserService()
	ctx := context.Background()

	taskID := primitive.NewObjectID()
	raw := []string{taskID.Hex(), taskID.Hex(), "garbage"}

	users.On("Insert", mock.Anything, mock.MatchedBy(func(in dom.User) bool {
		return len(in.PendingTasks) == 1 && in.PendingTasks[0] == taskID
	})).Return(dom.User{ID: primitive.NewObjectID()}, nil).Once()

	_, err := svc.Create(ctx, service.UserInput{Name: "Alice", Email: "alice@example.com", PendingTasks: &raw})
	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestUserUpdateSyncsPendingTasks(t *testing.T) {
	svc, users, tasks := newUserService()
	ctx := context.Background()

	userID := primitive.NewObjectID()
	kept := primitive.NewObjectID()
	removed := primitive.NewObjectID()
	added := primitive.NewObjectID()

	prev := dom.User{ID: userID, Name: "Alice", Email: "alice@example.com",
		PendingTasks: []primitive.ObjectID{kept, removed}}
	incoming := []string{kept.Hex(), added.Hex()}

	users.On("GetByID", mock.Anything, userID).Return(prev, nil).Once()
	tasks.On("Unassign", mock.Anything, removed).Return(nil).Once()
	tasks.On("GetByID", mock.Anything, added).Return(dom.Task{ID: added}, nil).Once()
	tasks.On("Assign", mock.Anything, added, userID, "Alice").Return(nil).Once()
	users.On("Replace", mock.Anything, mock.MatchedBy(func(in dom.User) bool {
		return len(in.PendingTasks) == 2 && in.PendingTasks[0] == kept && in.PendingTasks[1] == added
	})).Return(prev, nil).Once()

	_, err := svc.Update(ctx, userID, service.UserInput{
		Name: "Alice", Email: "alice@example.com", PendingTasks: &incoming,
	})
	require.NoError(t, err)
	tasks.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestUserUpdateSkipsUnknownTask(t *testing.T) {
	svc, users, tasks := newUserService()
	ctx := context.Background()

	userID := primitive.NewObjectID()
	ghost := primitive.NewObjectID()
	prev := dom.User{ID: userID, Name: "Alice", Email: "alice@example.com", PendingTasks: []primitive.ObjectID{}}
	incoming := []string{ghost.Hex()}

	users.On("GetByID", mock.Anything, userID).Return(prev, nil).Once()
	tasks.On("GetByID", mock.Anything, ghost).Return(dom.Task{}, mongo.ErrNoDocuments).Once()
	users.On("Replace", mock.Anything, mock.Anything).Return(prev, nil).Once()

	_, err := svc.Update(ctx, userID, service.UserInput{
		Name: "Alice", Email: "alice@example.com", PendingTasks: &incoming,
	})
	require.NoError(t, err)
	tasks.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserUpdateAbsentPendingTasksKeepsList(t *testing.T) {
	svc, users, tasks := newUserService()
	ctx := context.Background()

	userID := primitive.NewObjectID()
	existing := primitive.NewObjectID()
	prev := dom.User{ID: userID, Name: "Alice", Email: "alice@example.com",
		PendingTasks: []primitive.ObjectID{existing}}

	users.On("GetByID", mock.Anything, userID).Return(prev, nil).Once()
	users.On("Replace", mock.Anything, mock.MatchedBy(func(in dom.User) bool {
		return len(in.PendingTasks) == 1 && in.PendingTasks[0] == existing
	})).Return(prev, nil).Once()

	_, err := svc.Update(ctx, userID, service.UserInput{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	tasks.AssertNotCalled(t, "Unassign", mock.Anything, mock.Anything)
	tasks.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserUpdateRenameRefreshesTasks(t *testing.T) {
	svc, users, tasks := newUserService()
	ctx := context.Background()

	userID := primitive.NewObjectID()
	prev := dom.User{ID: userID, Name: "Alice", Email: "alice@example.com"}

	users.On("GetByID", mock.Anything, userID).Return(prev, nil).Once()
	users.On("Replace", mock.Anything, mock.Anything).
		Return(dom.User{ID: userID, Name: "Alicia", Email: "alice@example.com"}, nil).Once()
	tasks.On("RefreshAssigneeName", mock.Anything, userID, "Alicia").Return(nil).Once()

	updated, err := svc.Update(ctx, userID, service.UserInput{Name: "Alicia", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.Name)
	tasks.AssertExpectations(t)
}

func TestUserUpdateDuplicateEmail(t *testing.T) {
	svc, users, _ := newUserService()
	ctx := context.Background()

	userID := primitive.NewObjectID()
	prev := dom.User{ID: userID, Name: "Alice", Email: "alice@example.com"}

	users.On("GetByID", mock.Anything, userID).Return(prev, nil).Once()
	users.On("Replace", mock.Anything, mock.Anything).Return(dom.User{}, duplicateKeyErr()).Once()

	_, err := svc.Update(ctx, userID, service.UserInput{Name: "Alice", Email: "bob@example.com"})
	assert.ErrorIs(t, err, service.ErrEmailTaken)
}

func TestUserDeleteUnassignsPendingTasks(t *testing.T) {
	svc, users, tasks := newUserService()
	ctx := context.Background()

	userID := primitive.NewObjectID()
	t1 := primitive.NewObjectID()
	t2 := primitive.NewObjectID()
	pending := []primitive.ObjectID{t1, t2}

	users.On("GetByID", mock.Anything, userID).
		Return(dom.User{ID: userID, PendingTasks: pending}, nil).Once()
	tasks.On("UnassignAll", mock.Anything, pending).Return(nil).Once()
	users.On("Delete", mock.Anything, userID).Return(nil).Once()

	require.NoError(t, svc.Delete(ctx, userID))
	tasks.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestUserDeleteNotFound(t *testing.T) {
	svc, users, _ := newUserService()
	ctx := context.Background()

	userID := primitive.NewObjectID()
	users.On("GetByID", mock.Anything, userID).Return(dom.User{}, mongo.ErrNoDocuments).Once()

	assert.ErrorIs(t, svc.Delete(ctx, userID), service.ErrUserNotFound)
}

func TestUserGetNotFound(t *testing.T) {
	svc, users, _ := newUserService()
	ctx := context.Background()

	userID := primitive.NewObjectID()
	users.On("GetByID", mock.Anything, userID).Return(dom.User{}, mongo.ErrNoDocuments).Once()

	_, err := svc.Get(ctx, userID)
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}
