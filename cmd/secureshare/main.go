package main

import "github.com/dath-251-thuanle/secureshare/cmd/secureshare/cmd"

func main() {
	cmd.Execute()
}
