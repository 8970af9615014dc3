package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"audioserver/internal/config"
	"audioserver/internal/database"
	"audioserver/internal/domain/audio"
	"audioserver/internal/domain/auth"
	"audioserver/internal/middleware"
	jwtsvc "audioserver/internal/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrate(&auth.User{}, &audio.AudioFile{}); err != nil {
		log.Fatal(err)
	}

	store, err := audio.NewStore(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		log.Fatal(err)
	}
	archiver, err := audio.NewArchiver(store, cfg.ExportDir)
	if err != nil {
		log.Fatal(err)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	authService := auth.NewService(auth.NewRepository(db), j)
	authHandler := auth.NewHandler(authService)

	audioService := audio.NewService(
		audio.NewRepository(db),
		audio.NewValidator(cfg.MaxUploadSize, cfg.AllowedMediaTypes),
		store,
		archiver,
	)
	audioHandler := audio.NewHandler(audioService)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.AccessLogger(), middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		auth.RegisterRoutes(v1, authHandler)

		// protected
		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(j))
		{
			audio.RegisterRoutes(protected, audioHandler)
		}
	}

	log.Printf("audio server listening addr=%s upload_dir=%s max_upload_size=%d",
		cfg.HTTPAddr, cfg.UploadDir, cfg.MaxUploadSize)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
