package main

import "de-hilfer/cmd"

func main() {
	cmd.Execute()
}
