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

// UserRepo provides user persistence plus pendingTasks set updates.
type UserRepo interface {
	Find(ctx context.Context, opts query.Options) ([]dom.User, error)
	FindRaw(ctx context.Context, opts query.Options) ([]bson.M, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (dom.User, error)
	GetByIDRaw(ctx context.Context, id primitive.ObjectID, projection bson.M) (bson.M, error)
	Insert(ctx context.Context, u dom.User) (dom.User, error)
	Replace(ctx context.Context, u dom.User) (dom.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddPendingTask(ctx context.Context, userID, taskID primitive.ObjectID) error
	RemovePendingTask(ctx context.Context, userID, taskID primitive.ObjectID) error
}

// MongoUserRepo implements UserRepo against the users collection.
type MongoUserRepo struct {
	coll *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection("users")}
}

// EnsureIndexes creates the unique index backing the duplicate-email rule.
// Called once at startup.
func (r *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoUserRepo) Find(ctx context.Context, opts query.Options) ([]dom.User, error) {
	cur, err := r.coll.Find(ctx, opts.Filter, findOptions(opts))
	if err != nil {
		return nil, err
	}
	list := []dom.User{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *MongoUserRepo) FindRaw(ctx context.Context, opts query.Options) ([]bson.M, error) {
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

func (r *MongoUserRepo) Count(ctx context.Context, filter bson.M) (int64, error) {
	return r.coll.CountDocuments(ctx, filter)
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (dom.User, error) {
	var u dom.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, err
}

func (r *MongoUserRepo) GetByIDRaw(ctx context.Context, id primitive.ObjectID, projection bson.M) (bson.M, error) {
	fo := options.FindOne()
	if projection != nil {
		fo.SetProjection(projection)
	}
	var doc bson.M
	err := r.coll.FindOne(ctx, bson.M{"_id": id}, fo).Decode(&doc)
	return doc, err
}

func (r *MongoUserRepo) Insert(ctx context.Context, u dom.User) (dom.User, error) {
	if u.PendingTasks == nil {
		u.PendingTasks = []primitive.ObjectID{}
	}
	if u.DateCreated.IsZero() {
		u.DateCreated = time.Now().UTC()
	}
	res, err := r.coll.InsertOne(ctx, u)
	if err != nil {
		return dom.User{}, err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return u, nil
}

func (r *MongoUserRepo) Replace(ctx context.Context, u dom.User) (dom.User, error) {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return dom.User{}, err
	}
	if res.MatchedCount == 0 {
		return dom.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

func (r *MongoUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AddPendingTask uses $addToSet so re-adding an id is a no-op.
func (r *MongoUserRepo) AddPendingTask(ctx context.Context, userID, taskID primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, userID, bson.M{"$addToSet": bson.M{"pendingTasks": taskID}})
	return err
}

func (r *MongoUserRepo) RemovePendingTask(ctx context.Context, userID, taskID primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, userID, bson.M{"$pull": bson.M{"pendingTasks": taskID}})
	return err
}
