package main

import "github.com/meysamhadeli/imgsync/cmd"

func main() {
	cmd.Execute()
}
