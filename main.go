package main

import "github.com/wyseguys/site-audit/cmd"

func main() {
	cmd.Execute()
}
