package main

import (
	"log"
	"os"
	"time"

	"go.uber.org/fx"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	app := fx.New(
		fx.StartTimeout(5*time.Minute),

		fx.Provide(
			provideConfig,
			provideStore,
			providePlacesClient,
			provideIngestService,
			provideRestaurantService,
			provideUploadService,
			provideSchema,
			provideGraphQLController,
			provideHealthController,
			provideRouter,
		),

		// Ingestion is registered first so it finishes before the listener opens.
		fx.Invoke(RunIngestOnStart),
		fx.Invoke(StartServer),
	)

	app.Run()
}
