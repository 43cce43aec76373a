package main

import (
	"os"

	"github.com/Rana718/sqlir/cmd"
	"github.com/Rana718/sqlir/internal/utils"
)

func main() {
	if err := cmd.Execute(); err != nil {
		utils.Default().Fail(err)
		os.Exit(1)
	}
}
