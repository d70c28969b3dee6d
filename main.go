package main

import "equipflow/sei/cmd"

func main() {
	cmd.Execute()
}
