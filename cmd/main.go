package main

import (
	"os"

	_ "powersense/docs"
)

// @title                       PowerSense API
// @version                     1.0
// @description                 Load-shedding countdown, live usage, device control and power-saving tips.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
