package prompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

var (
	in            = bufio.NewReader(os.Stdin)
	out io.Writer = os.Stdout
)

func readLine() (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptString prompts for a line of input.
func PromptString(label string) (string, error) {
	fmt.Fprint(out, label)
	return readLine()
}

// PromptPassword reads without echo when stdin is a terminal.
func PromptPassword(label string) (string, error) {
	fmt.Fprint(out, label)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine()
	}

	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func PromptConfirm(label string) (bool, error) {
	fmt.Fprint(out, label+" (y/n) ")
	answer, err := readLine()
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// PromptSelect returns the zero-based index of the chosen option.
func PromptSelect(label string, options []string) (int, error) {
	fmt.Fprintln(out, label)
	for i, opt := range options {
		fmt.Fprintf(out, "%d) %s\n", i+1, opt)
	}
	fmt.Fprint(out, "Select option: ")

	answer, err := readLine()
	if err != nil {
		return -1, err
	}
	selection, err := strconv.Atoi(answer)
	if err != nil || selection < 1 || selection > len(options) {
		return -1, fmt.Errorf("invalid selection %q", answer)
	}
	return selection - 1, nil
}
