package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"taskctl/internal/app"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
)

// optionalString is a string flag that records whether it was given.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(v string) error {
	o.value = v
	o.set = true
	return nil
}

// parseTaskID validates a task id argument.
func parseTaskID(args []string) (service.TaskID, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("task id required")
	}
	if len(args) > 1 {
		return "", fmt.Errorf("too many arguments: %s", strings.Join(args[1:], " "))
	}
	id := strings.TrimSpace(args[0])
	if id == "" {
		return "", fmt.Errorf("task id required")
	}
	return service.TaskID(id), nil
}

// parseEnums parses optional status and priority flag values.
func parseEnums(status, priority string) (service.Status, service.Priority, error) {
	var st service.Status
	var pr service.Priority
	var err error
	if status != "" {
		if st, err = service.ParseStatus(status); err != nil {
			return "", "", err
		}
	}
	if priority != "" {
		if pr, err = service.ParsePriority(priority); err != nil {
			return "", "", err
		}
	}
	return st, pr, nil
}

// lineReader reads answers to prompts, one line at a time.
type lineReader struct {
	sc *bufio.Scanner
	fd int // terminal for secret input, -1 when r is not a terminal
}

func newLineReader(r io.Reader) *lineReader {
	if r == nil {
		r = strings.NewReader("")
	}
	l := &lineReader{sc: bufio.NewScanner(r), fd: -1}
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		l.fd = int(f.Fd())
	}
	return l
}

// ReadLine returns the next line, trimmed, and false at end of input.
func (l *lineReader) ReadLine() (string, bool) {
	if !l.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(l.sc.Text()), true
}

// Prompt writes question to w and reads the answer.
func (l *lineReader) Prompt(w io.Writer, question string) (string, bool) {
	fmt.Fprint(w, question)
	return l.ReadLine()
}

// PromptSecret is Prompt with echo turned off when reading from a terminal.
func (l *lineReader) PromptSecret(w io.Writer, question string) (string, bool) {
	if l.fd < 0 {
		return l.Prompt(w, question)
	}
	fmt.Fprint(w, question)
	b, err := term.ReadPassword(l.fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(b)), true
}

// confirmer asks on w and accepts "y" or "yes" from the reader.
func (l *lineReader) confirmer(w io.Writer) app.Confirmer {
	return app.ConfirmFunc(func(prompt string) bool {
		answer, ok := l.Prompt(w, prompt+" [y/N] ")
		if !ok {
			return false
		}
		answer = strings.ToLower(answer)
		return answer == "y" || answer == "yes"
	})
}

// reportFailure prints the controller's recorded error and maps its cause to
// an exit code.
func reportFailure(errOut io.Writer, st app.State) int {
	if service.IsUnauthorized(st.Cause) {
		fmt.Fprintln(errOut, "error: not logged in (run: taskctl login)")
		return exitcode.AuthError
	}
	if service.IsNotFound(st.Cause) {
		fmt.Fprintln(errOut, "error: task not found")
		return exitcode.UserError
	}
	msg := st.Err
	if msg == "" {
		msg = "request failed"
	}
	if st.Cause != nil {
		fmt.Fprintf(errOut, "error: backend error: %s (%v)\n", msg, st.Cause)
	} else {
		fmt.Fprintf(errOut, "error: backend error: %s\n", msg)
	}
	return exitcode.BackendError
}

// reportRemoteError prints a direct backend error and maps it to an exit code.
func reportRemoteError(errOut io.Writer, err error, id service.TaskID) int {
	if service.IsUnauthorized(err) {
		fmt.Fprintln(errOut, "error: not logged in (run: taskctl login)")
		return exitcode.AuthError
	}
	if service.IsNotFound(err) {
		fmt.Fprintf(errOut, "error: task not found: %s\n", id)
		return exitcode.UserError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
