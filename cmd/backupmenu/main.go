// Package main implements the backupmenu CLI tool
package main

import (
	"os"

	"github.com/davidroman0O/backupmenu/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
