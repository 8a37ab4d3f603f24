package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConfirmDanger prompts on stdout, boxed in red, and reads the answer from
// stdin. Used before broadcasts and key deletion.
func ConfirmDanger(prompt string) bool {
	return ConfirmFrom(os.Stdin, os.Stdout, DangerBox(StyleError.Render("⚠ "+prompt))+"\n")
}

// ConfirmFrom writes prompt to w and reports whether the line read from r is
// a yes.
func ConfirmFrom(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(r).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
