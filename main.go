package main

import "github.com/caolib/typora-themes-gallery/cmd"

func main() {
	cmd.Execute()
}
