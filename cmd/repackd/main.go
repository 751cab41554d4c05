package main

import (
	"log"

	"github.com/halverson/repackd/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ repackd failed to initialize: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ repackd failed to start: %v", err)
	}
}
