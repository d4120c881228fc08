package main

import (
	"github.com/avbelov/tunehunt/core/internal/app"
	"github.com/avbelov/tunehunt/core/internal/config"
)

func main() {
	app.Go(config.Load())
}
