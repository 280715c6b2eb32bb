// Generates an ed25519 provenance keypair and writes it where the runner
// expects it, or prints it when no directory is given.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"pagesci/internal/provenance"
)

func main() {
	dir := flag.String("dir", "", "directory to write deploy.pub / deploy.priv into (print only when empty)")
	flag.Parse()

	pub, priv, err := provenance.GenerateKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen error: %v\n", err)
		os.Exit(2)
	}

	if *dir != "" {
		if err := os.MkdirAll(*dir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "keygen error: %v\n", err)
			os.Exit(2)
		}
		if err := provenance.SaveKeyPair(pub, priv, *dir+"/deploy.pub", *dir+"/deploy.priv"); err != nil {
			fmt.Fprintf(os.Stderr, "keygen error: %v\n", err)
			os.Exit(2)
		}
		fmt.Println("wrote", *dir+"/deploy.pub", "and", *dir+"/deploy.priv")
		return
	}

	fmt.Println("PRIVATE_KEY_HEX:")
	fmt.Println(hex.EncodeToString(priv))
	fmt.Println()
	fmt.Println("PUBLIC_KEY_HEX:")
	fmt.Println(hex.EncodeToString(pub))
}
