package main

import (
	"github.com/coplay/gamenight/core/internal/app"
	"github.com/coplay/gamenight/core/internal/config"
)

func main() {
	app.Go(config.Load())
}
