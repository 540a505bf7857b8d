package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"go.uber.org/fx"

	"github.com/nearbite/restaurant-api/config"
	"github.com/nearbite/restaurant-api/controllers"
	"github.com/nearbite/restaurant-api/middleware"
	"github.com/nearbite/restaurant-api/repositories"
	"github.com/nearbite/restaurant-api/routes"
	"github.com/nearbite/restaurant-api/services"
)

func provideConfig() (*config.Config, error) {
	return config.Load()
}

// provideStore opens the configured backend and closes it when the app stops.
func provideStore(lc fx.Lifecycle, cfg *config.Config) (repositories.RestaurantRepository, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := config.ConnectMongo(context.Background(), cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		if err := repositories.EnsureMongoIndexes(context.Background(), client, cfg.MongoDatabase); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Println("Disconnecting from MongoDB")
				return client.Disconnect(ctx)
			},
		})
		log.Printf("Connected to MongoDB database %s", cfg.MongoDatabase)
		return repositories.NewMongoRestaurantRepository(client, cfg.MongoDatabase), nil

	case config.StorePostgres:
		db, err := config.ConnectPostgres(cfg.Postgres, &repositories.RestaurantRow{})
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				log.Println("Closing database connection")
				return sqlDB.Close()
			},
		})
		log.Println("Successfully connected to database")
		return repositories.NewPostgresRestaurantRepository(db), nil

	case config.StoreMemory:
		log.Println("Using in-memory store, data will not survive a restart")
		return repositories.NewMemoryRestaurantRepository(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func providePlacesClient(cfg *config.Config) services.PlacesClient {
	return services.NewGooglePlacesClient(cfg.GoogleAPIKey, cfg.PlacesBaseURL)
}

func provideIngestService(cfg *config.Config, places services.PlacesClient, repo repositories.RestaurantRepository) *services.IngestService {
	return services.NewIngestService(places, repo, services.IngestConfig{
		Latitude:     cfg.IngestLat,
		Longitude:    cfg.IngestLng,
		RadiusMeters: cfg.IngestRadius,
		PlaceType:    cfg.IngestType,
		Language:     cfg.IngestLanguage,
		PageDelay:    cfg.IngestPageDelay,
		MaxPages:     cfg.IngestMaxPages,
	})
}

func provideRestaurantService(repo repositories.RestaurantRepository) services.RestaurantServiceInterface {
	return services.NewRestaurantService(repo)
}

func provideUploadService(cfg *config.Config, restaurants services.RestaurantServiceInterface) services.ReviewImageUploader {
	return services.NewUploadService(cfg.R2, restaurants)
}

func provideSchema(restaurants services.RestaurantServiceInterface, uploads services.ReviewImageUploader) (graphql.Schema, error) {
	return controllers.NewSchema(restaurants, uploads)
}

func provideGraphQLController(schema graphql.Schema) *controllers.GraphQLController {
	return controllers.NewGraphQLController(schema)
}

func provideHealthController(repo repositories.RestaurantRepository) *controllers.HealthController {
	return controllers.NewHealthController(repo)
}

func provideRouter(graphqlController *controllers.GraphQLController, healthController *controllers.HealthController) *gin.Engine {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(os.Stdout))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	routes.SetupRoutes(r, graphqlController, healthController)
	return r
}

// RunIngestOnStart performs one synchronous ingestion pass when enabled. A
// failed pass is logged and the server still starts with whatever was stored.
func RunIngestOnStart(lc fx.Lifecycle, cfg *config.Config, ingest *services.IngestService) {
	if !cfg.IngestOnStart {
		log.Println("Ingestion on start disabled")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ingest.Run(context.Background())
			return nil
		},
	})
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine) {
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Printf("Starting server on port %s", cfg.Port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}
