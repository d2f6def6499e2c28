package main

import "github.com/textsift/textsift/cmd/textsift/cmd"

func main() {
	cmd.Execute()
}
