package main

import "github.com/netlat/netlat/cmd"

func main() {
	cmd.Execute()
}
