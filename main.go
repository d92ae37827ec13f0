package main

import (
	"github.com/samjoshuadud/automation-notion/cmd"
	"github.com/samjoshuadud/automation-notion/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	logger.SetVersion("0.3.0")
	cmd.Execute()
}
