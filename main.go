package main

import "sjsage522/pricescout/cmd"

func main() {
	cmd.Execute()
}
