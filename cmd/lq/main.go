package main

import "github.com/robert-crandall/journal-app/cmd/lq/root"

func main() {
	root.Execute()
}
