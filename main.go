package main

import "github.com/alexiusacademia/gosxcu/cmd"

func main() {
	cmd.Execute()
}
