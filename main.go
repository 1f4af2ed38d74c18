/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/shotrecord/cmd"

func main() {
	cmd.Execute()
}
