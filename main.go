package main

import "github.com/fakeyudi/screenrec/cmd"

func main() {
	cmd.Execute()
}
