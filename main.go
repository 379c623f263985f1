package main

import (
	"os"

	"github.com/PolarWolf314/cloak/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
