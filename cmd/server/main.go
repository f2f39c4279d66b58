package main

import "rehabit/internal/cli"

func main() {
	cli.Execute()
}
