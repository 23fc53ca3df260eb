package main

import "github.com/jsphweid/chordfuse/cmd"

func main() {
	cmd.Execute()
}
