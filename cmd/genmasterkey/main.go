package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"phonelogin/internal/files"
)

func main() {
	out := flag.String("out", "master.key", "Path of the key file to create")
	flag.Parse()

	if err := files.WriteMasterKey(*out); err != nil {
		if errors.Is(err, files.ErrMasterKeyExists) {
			fmt.Fprintf(os.Stderr, "Error: %s already exists. Refusing to overwrite.\n", *out)
		} else {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *out, err)
		}
		os.Exit(1)
	}
	fmt.Printf("Master key written to %s\n", *out)
	fmt.Println("Set session.encryption=true (or PHONELOGIN_SESSION_ENCRYPTION=true) to seal stored sessions.")
}
