package main

import "Recall_1.0/client/recall-cli/cmd"

func main() {
	cmd.Execute()
}
