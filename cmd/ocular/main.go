package main

import "github.com/et0and/ocular/internal/cli"

func main() {
	cli.Execute()
}
