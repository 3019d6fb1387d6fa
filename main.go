package main

import "github.com/chenzhuyu2004/greensplit/cmd"

func main() {
	cmd.Execute()
}
