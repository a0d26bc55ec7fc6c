package main

import "ferreteria/cmd"

func main() {
	cmd.Execute()
}
