// Package main provides the dll command line tool.
package main

import (
	"fmt"
	"os"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("dll %s\n", version)
		return
	}

	fmt.Println("dll - composable neural-network layers for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("")
	fmt.Println("See the examples directory for runnable programs.")
}
