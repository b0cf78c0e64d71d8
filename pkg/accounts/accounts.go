// Package accounts loads the ordered list of account names to look up.
package accounts

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrInputNotFound is returned when the input file does not exist
var ErrInputNotFound = errors.New("input file not found")

// Account is one name to query together with its index in the full input list
type Account struct {
	Name     string
	Position int
}

// Read parses one account name per line. Lines are trimmed and blank lines
// are skipped; positions count only the kept lines.
func Read(r io.Reader) ([]Account, error) {
	var list []Account
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		list = append(list, Account{Name: name, Position: len(list)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}
	return list, nil
}

// Load reads the account list from path
func Load(path string) ([]Account, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	return Read(f)
}
