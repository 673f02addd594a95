// derive_address derives a single P2WPKH address from a BIP39 mnemonic for
// testing. Only the address is printed, never key material.
//
// Usage:
//
//	echo "your seed phrase" | go run ./scripts/derive_address
//	echo "your seed phrase" | go run ./scripts/derive_address "m/84'/0'/0'/0/0" mainnet
//
// The default path is m/84'/1'/0'/0/0 on signet.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/complex-gh/hdrescue"
)

func main() {
	pathStr := "m/84'/1'/0'/0/0"
	netName := "signet"
	if len(os.Args) > 1 {
		pathStr = os.Args[1]
	}
	if len(os.Args) > 2 {
		netName = os.Args[2]
	}

	var mnemonic string
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		mnemonic = strings.TrimSpace(scanner.Text())
	}
	if mnemonic == "" {
		fmt.Fprintln(os.Stderr, "Usage: echo \"seed phrase\" | derive_address [path] [network]")
		os.Exit(1)
	}

	net, err := hdrescue.ParseNetwork(netName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	path, err := hdrescue.ParsePath(pathStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	master, err := hdrescue.NewMasterFromMnemonic(mnemonic, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	key, err := master.DerivePath(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	addr, err := key.AddressP2WPKH(net)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(addr)
}
