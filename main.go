package main

import "moldex/cmd"

func main() {
	cmd.Execute()
}
