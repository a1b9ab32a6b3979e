package main

import "github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/cli/cmd"

func main() {
	cmd.Execute()
}
