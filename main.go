package main

import "github.com/Tiliavir/work-time-tracker/cmd"

func main() {
	cmd.Execute()
}
