package cli

import (
	"bufio"
	"fmt"
	"strings"

	"golang.org/x/term"

	domainerrors "github.com/bookexchange/bookexchange/internal/errors"
)

// readPassword prompts for a password, masking input when stdin is a terminal.
// Piped input is read one line at a time.
func (a *App) readPassword(prompt string) (string, error) {
	if f, ok := a.stdinFile(); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.out, prompt)
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(string(bytePassword)), nil
	}

	line, err := bufio.NewReader(a.in).ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil {
			return "", domainerrors.Validation("a password is required (use --password or stdin)")
		}
		return "", domainerrors.Validation("password cannot be empty")
	}
	return line, nil
}

// passwordFlag returns value, or prompts for it when the flag was not given.
func (a *App) passwordFlag(value string) (string, error) {
	if value != "" {
		return value, nil
	}
	return a.readPassword("Password: ")
}
