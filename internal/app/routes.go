package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bgggggh/cs409-mp3/internal/cache"
	"github.com/bgggggh/cs409-mp3/internal/config"
	"github.com/bgggggh/cs409-mp3/internal/dto"
	"github.com/bgggggh/cs409-mp3/internal/handlers"
	"github.com/bgggggh/cs409-mp3/internal/repo"
	"github.com/bgggggh/cs409-mp3/internal/service"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, client *mongo.Client, db *mongo.Database, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(client, rdb))
	r.GET("/version", versionHandler(cfg))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.Envelope{Message: "Not found", Data: nil})
	})

	api := r.Group("/api")

	var listCache *cache.ListCache
	if rdb != nil {
		listCache = cache.NewListCache(rdb, cfg.Redis.DefaultTTL.Duration())
	}

	taskRepo := repo.NewMongoTaskRepo(db)
	userRepo := repo.NewMongoUserRepo(db)

	taskHandler := handlers.NewTaskHandler(service.NewTaskService(taskRepo, userRepo, listCache))
	userHandler := handlers.NewUserHandler(service.NewUserService(userRepo, taskRepo, listCache))

	registerTaskRoutes(api, taskHandler)
	registerUserRoutes(api, userHandler)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	endpoints := []gin.H{
		{"path": "/api/users", "methods": []string{"GET", "POST"}, "description": "User management"},
		{"path": "/api/tasks", "methods": []string{"GET", "POST"}, "description": "Task management"},
		{"path": "/api/users/:id", "methods": []string{"GET", "PUT", "DELETE"}, "description": "Individual user operations"},
		{"path": "/api/tasks/:id", "methods": []string{"GET", "PUT", "DELETE"}, "description": "Individual task operations"},
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.Envelope{
			Message: "Welcome to Llama.io Task Management API",
			Data: gin.H{
				"version":   cfg.App.Version,
				"env":       cfg.App.Env,
				"endpoints": endpoints,
			},
		})
	}
}

// healthHandler pings the store (and the cache when configured). The store
// being unreachable makes the whole check fail.
func healthHandler(client *mongo.Client, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		components := gin.H{"database": "up"}
		status := http.StatusOK
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			components["database"] = "down"
			status = http.StatusServiceUnavailable
		}
		if rdb != nil {
			components["cache"] = "up"
			if err := rdb.Ping(ctx).Err(); err != nil {
				components["cache"] = "down"
			}
		}

		message := "OK"
		if status != http.StatusOK {
			message = "Service unavailable"
		}
		c.JSON(status, dto.Envelope{Message: message, Data: components})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.Envelope{Message: "OK", Data: gin.H{"version": cfg.App.Version}})
	}
}

// recovery converts panics into the generic 500 envelope; details stay in the
// server log.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Envelope{
			Message: "Internal server error",
			Data:    nil,
		})
	})
}

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	api.GET("/tasks", h.List)
	api.POST("/tasks", h.Create)
	api.GET("/tasks/:id", h.GetByID)
	api.PUT("/tasks/:id", h.Update)
	api.DELETE("/tasks/:id", h.Delete)
}

func registerUserRoutes(api *gin.RouterGroup, h *handlers.UserHandler) {
	api.GET("/users", h.List)
	api.POST("/users", h.Create)
	api.GET("/users/:id", h.GetByID)
	api.PUT("/users/:id", h.Update)
	api.DELETE("/users/:id", h.Delete)
}
