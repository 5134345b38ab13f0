// Command hashpw prints the bcrypt hash of a password for the static user
// directory.
//
//	go run ./cmd/hashpw 's3cret'
package main

import (
	"fmt"
	"os"

	"github.com/pulsechat/relay/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpw <password>")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
