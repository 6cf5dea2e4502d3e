package main

import "medreel/cmd"

func main() {
	cmd.Execute()
}
