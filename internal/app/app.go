package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bgggggh/cs409-mp3/internal/config"
	"github.com/bgggggh/cs409-mp3/internal/repo"
)

type App struct {
	cfg    config.Config
	client *mongo.Client
	db     *mongo.Database
	redis  *redis.Client
	router *gin.Engine
}

func New(cfg config.Config) (*App, error) {
	a := &App{cfg: cfg}

	client, err := newMongo(cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	a.client = client
	a.db = client.Database(cfg.Mongo.Database)

	if cfg.Redis.Enabled() {
		rdb, err := newRedis(cfg.Redis)
		if err != nil {
			disconnect(client)
			return nil, err
		}
		a.redis = rdb
	}

	if err := ensureIndexes(a.db); err != nil {
		if a.redis != nil {
			_ = a.redis.Close()
		}
		disconnect(client)
		return nil, err
	}

	a.router = newRouter(cfg, a.client, a.db, a.redis)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.client != nil {
		return a.client.Disconnect(ctx)
	}
	return nil
}

func newMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnect(client)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

// ensureIndexes creates the indexes the API relies on, most importantly the
// unique index behind the duplicate-email rule.
func ensureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repo.NewMongoUserRepo(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = client.Disconnect(ctx)
}

func newRouter(cfg config.Config, client *mongo.Client, db *mongo.Database, rdb *redis.Client) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, client, db, rdb)
	return r
}
