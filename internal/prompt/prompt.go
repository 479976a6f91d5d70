// Package prompt asks the operator simple yes/no questions on the terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm prints the question to w and reads one line from r. Only an
// explicit "y" or "yes" (case-insensitive) counts as consent; everything
// else, including a read failure, declines.
func Confirm(r io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s (y/N): ", question)

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
