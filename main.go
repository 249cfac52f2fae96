package main

import (
	"github.com/nasfand/nasfand/cmd"
)

func main() {
	cmd.Execute()
}
