package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/imgsync/constants/lipgloss"
)

// Confirm asks a yes/no question and returns true only for "y" or "yes".
func Confirm(reader *bufio.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprint(out, lipgloss.BlueSky.Render(fmt.Sprintf("%s (y/N): ", question)))

	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("error reading input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
