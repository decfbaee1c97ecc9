// genpass prints the Argon2id hash for the operator password, ready to
// paste into the auth.password_hash config field.
package main

import (
	"fmt"
	"os"

	"github.com/insectlab/bugradar/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: genpass <password>")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
