package main

import "github.com/chrisdamba/orderly/cmd"

func main() {
	cmd.Execute()
}
