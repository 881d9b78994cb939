/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/racing-lottery-go/cmd"

func main() {
	cmd.Execute()
}
