package main

import "github.com/ayush-bhavsar/rm-bg/cmd"

func main() {
	cmd.Execute()
}
