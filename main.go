package main

import "clinic-manager/cmd"

func main() {
	cmd.Execute()
}
