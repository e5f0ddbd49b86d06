package main

import (
	"os"

	"github.com/heathj/statetoggle/cli"
)

func main() {
	os.Exit(cli.Execute())
}
