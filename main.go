package main

import "tipwave/cmd"

func main() {
	cmd.Execute()
}
