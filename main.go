package main

import "github.com/stuttgart-things/secretgate/cmd"

func main() {
	cmd.Execute()
}
