// Command pinhash prints the bcrypt hash of a wallet PIN, for seeding
// accounts. The PIN is read from the first argument or from stdin.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	pin, err := readPin()
	if err != nil {
		fmt.Fprintf(os.Stderr, "read pin: %v\n", err)
		os.Exit(1)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash pin: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}

func readPin() (string, error) {
	if len(os.Args) > 1 && strings.TrimSpace(os.Args[1]) != "" {
		return os.Args[1], nil
	}
	info, err := os.Stdin.Stat()
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return "", fmt.Errorf("provide pin as arg or stdin")
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && len(line) == 0 {
		return "", err
	}
	pin := strings.TrimSpace(line)
	if pin == "" {
		return "", fmt.Errorf("pin is empty")
	}
	return pin, nil
}
