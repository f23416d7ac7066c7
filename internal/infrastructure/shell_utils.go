package infrastructure

import "strings"

// shellSpecialChars have meaning to a POSIX shell and force quoting
const shellSpecialChars = " \t'\"$`\\!*?[](){}|;<>&~#%\n\r"

// ShellEscape quotes s for display in a logged command line. exec.Command
// itself never needs this.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, isShellSpecialChar) < 0 {
		return s
	}
	// Close the quote, emit a double-quoted ', reopen
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellEscapeCommand renders binary and args as a copy-pasteable command line
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(binary))
	for _, arg := range args {
		parts = append(parts, ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}

func isShellSpecialChar(c rune) bool {
	return strings.ContainsRune(shellSpecialChars, c)
}
