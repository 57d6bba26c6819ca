package main

import (
	"context"
	"log"

	"github.com/Apurer/go-reservation-api-server/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("reservation API failed: %v", err)
	}
}
