package main

import "github.com/kiesman99/maskmap/cmd"

func main() {
	cmd.Execute()
}
