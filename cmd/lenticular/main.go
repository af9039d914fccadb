package main

import "github.com/MANISPIN/align-images-for-lenticular/cmd/lenticular/cmd"

func main() {
	cmd.Execute()
}
