package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dom "github.com/bgggggh/cs409-mp3/internal/domain"
	"github.com/bgggggh/cs409-mp3/internal/query"
)

// TaskRepo provides task persistence plus the single-field updates the
// reference synchronizer needs.
type TaskRepo interface {
	Find(ctx context.Context, opts query.Options) ([]dom.Task, error)
	FindRaw(ctx context.Context, opts query.Options) ([]bson.M, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (dom.Task, error)
	GetByIDRaw(ctx context.Context, id primitive.ObjectID, projection bson.M) (bson.M, error)
	Insert(ctx context.Context, t dom.Task) (dom.Task, error)
	Replace(ctx context.Context, t dom.Task) (dom.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Assign(ctx context.Context, taskID, userID primitive.ObjectID, userName string) error
	Unassign(ctx context.Context, taskID primitive.ObjectID) error
	UnassignAll(ctx context.Context, taskIDs []primitive.ObjectID) error
	RefreshAssigneeName(ctx context.Context, userID primitive.ObjectID, userName string) error
}

// MongoTaskRepo implements TaskRepo against the tasks collection.
type MongoTaskRepo struct {
	coll *mongo.Collection
}

func NewMongoTaskRepo(db *mongo.Database) *MongoTaskRepo {
	return &MongoTaskRepo{coll: db.Collection("tasks")}
}

func (r *MongoTaskRepo) Find(ctx context.Context, opts query.Options) ([]dom.Task, error) {
	cur, err := r.coll.Find(ctx, opts.Filter, findOptions(opts))
	if err != nil {
		return nil, err
	}
	list := []dom.Task{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// FindRaw returns raw documents so a projection shapes the response exactly
// as stored, instead of zero-filling unselected struct fields.
func (r *MongoTaskRepo) FindRaw(ctx context.Context, opts query.Options) ([]bson.M, error) {
	cur, err := r.coll.Find(ctx, opts.Filter, findOptions(opts))
	if err != nil {
		return nil, err
	}
	docs := []bson.M{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *MongoTaskRepo) Count(ctx context.Context, filter bson.M) (int64, error) {
	return r.coll.CountDocuments(ctx, filter)
}

func (r *MongoTaskRepo) GetByID(ctx context.Context, id primitive.ObjectID) (dom.Task, error) {
	var t dom.Task
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	return t, err
}

func (r *MongoTaskRepo) GetByIDRaw(ctx context.Context, id primitive.ObjectID, projection bson.M) (bson.M, error) {
	fo := options.FindOne()
	if projection != nil {
		fo.SetProjection(projection)
	}
	var doc bson.M
	err := r.coll.FindOne(ctx, bson.M{"_id": id}, fo).Decode(&doc)
	return doc, err
}

func (r *MongoTaskRepo) Insert(ctx context.Context, t dom.Task) (dom.Task, error) {
	if t.DateCreated.IsZero() {
		t.DateCreated = time.Now().UTC()
	}
	res, err := r.coll.InsertOne(ctx, t)
	if err != nil {
		return dom.Task{}, err
	}
	t.ID = res.InsertedID.(primitive.ObjectID)
	return t, nil
}

func (r *MongoTaskRepo) Replace(ctx context.Context, t dom.Task) (dom.Task, error) {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return dom.Task{}, err
	}
	if res.MatchedCount == 0 {
		return dom.Task{}, mongo.ErrNoDocuments
	}
	return t, nil
}

func (r *MongoTaskRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Assign points a task at a user and refreshes the denormalized name.
func (r *MongoTaskRepo) Assign(ctx context.Context, taskID, userID primitive.ObjectID, userName string) error {
	_, err := r.coll.UpdateByID(ctx, taskID, bson.M{
		"$set": bson.M{"assignedUser": userID, "assignedUserName": userName},
	})
	return err
}

func (r *MongoTaskRepo) Unassign(ctx context.Context, taskID primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, taskID, bson.M{
		"$set": bson.M{"assignedUser": nil, "assignedUserName": dom.UnassignedName},
	})
	return err
}

// UnassignAll clears the assignment of every listed task in one write. Used
// when a user is deleted.
func (r *MongoTaskRepo) UnassignAll(ctx context.Context, taskIDs []primitive.ObjectID) error {
	if len(taskIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": taskIDs}},
		bson.M{"$set": bson.M{"assignedUser": nil, "assignedUserName": dom.UnassignedName}},
	)
	return err
}

// RefreshAssigneeName rewrites the denormalized name on every task assigned
// to the user. Used when a user is renamed.
func (r *MongoTaskRepo) RefreshAssigneeName(ctx context.Context, userID primitive.ObjectID, userName string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"assignedUser": userID},
		bson.M{"$set": bson.M{"assignedUserName": userName}},
	)
	return err
}

func findOptions(opts query.Options) *options.FindOptions {
	fo := options.Find()
	if len(opts.Sort) > 0 {
		fo.SetSort(opts.Sort)
	}
	if opts.Projection != nil {
		fo.SetProjection(opts.Projection)
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	return fo
}
