package main

import "github.com/madhukiran65/arni-medica-backend-sub001/cmd"

func main() {
	cmd.Execute()
}
