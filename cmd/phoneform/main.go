// cmd/phoneform serves the phone number form over HTTP.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/phoneform/app"
	"github.com/dalemusser/phoneform/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
