package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/mhd-br/void-studio/internal/cache"
	"github.com/mhd-br/void-studio/internal/httpapi/handlers"
	"github.com/mhd-br/void-studio/internal/relay"
	"github.com/mhd-br/void-studio/internal/store"
	"github.com/mhd-br/void-studio/internal/ws"
)

type ServerConfig struct {
	Running struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"running"`
	Mysql struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"mysql"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	Room struct {
		EvictAfter time.Duration `mapstructure:"evict_after"`
	} `mapstructure:"room"`
}

func initConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	cfg, err := initConfig()
	if err != nil {
		log.Fatalf("init config failed: %v", err)
	}

	r := relay.New()
	manager := ws.NewManager(r)

	grace := cfg.Room.EvictAfter
	if grace <= 0 {
		grace = 10 * time.Minute
	}
	janitor := relay.NewJanitor(r, grace)
	janitor.Start()
	defer janitor.Stop()

	// Project persistence is an optional collaborator: no dsn, no REST
	// routes. The sync relay works either way.
	var projects store.ProjectStore
	if cfg.Mysql.DSN != "" {
		db, err := store.InitMySQL(cfg.Mysql.DSN)
		if err != nil {
			log.Fatalf("connect mysql: %v", err)
		}
		projects = store.NewProjectStore(db)

		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
			})
			if err := rdb.Ping(context.Background()).Err(); err != nil {
				log.Fatalf("connect redis: %v", err)
			}
			defer rdb.Close()
			ttl := cfg.Redis.TTL
			if ttl <= 0 {
				ttl = 10 * time.Minute
			}
			projects = cache.NewProjectCache(rdb, projects, ttl)
		}
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/ws", manager.Serve)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if projects != nil {
		v1 := router.Group("/v1")
		handlers.NewProjects(projects).Register(v1)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Running.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("void studio server running on port %d", cfg.Running.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
