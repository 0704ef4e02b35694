package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/logging"
	"taskmgr/internal/output"
	"taskmgr/internal/service"
	"taskmgr/internal/viewstate"
)

// newController builds a view state controller logging through ctx's logger.
func newController(ctx context.Context, svc service.Service) *viewstate.Controller {
	return viewstate.New(svc, logging.FromContext(ctx))
}

// exitCodeFor maps a service failure to an exit code.
func exitCodeFor(err error) int {
	switch service.Classify(err) {
	case service.KindValidation:
		return exitcode.UserError
	case service.KindRemote:
		switch service.StatusCode(err) {
		case http.StatusNotFound:
			return exitcode.UserError
		case http.StatusUnauthorized, http.StatusForbidden:
			return exitcode.AuthError
		}
	}
	return exitcode.BackendError
}

// reportFailure prints the controller's banner (or err when no banner was
// set) and returns the matching exit code.
func reportFailure(errOut io.Writer, ctl *viewstate.Controller, err error) int {
	msg := ctl.Banner()
	if msg == "" {
		msg = err.Error()
	}
	output.FormatBanner(errOut, msg)

	code := exitCodeFor(err)
	if code == exitcode.AuthError {
		fmt.Fprintln(errOut, "hint: token missing, expired or revoked (run: taskmgr login)")
	}
	return code
}

// reportSubmitFailure handles a create/update failure. Validation failures
// are printed field by field; everything else goes through the banner.
func reportSubmitFailure(errOut io.Writer, ctl *viewstate.Controller, err error) int {
	fields, ok := service.FieldErrors(err)
	if !ok {
		return reportFailure(errOut, ctl, err)
	}
	if len(fields) == 0 {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	fmt.Fprintln(errOut, "error: invalid task")
	output.FormatFieldErrors(errOut, fields)
	return exitcode.UserError
}

// optString is a string flag that remembers whether it was set.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }
func (o *optString) Type() string   { return "string" }

func (o *optString) Set(s string) error {
	o.value = s
	o.set = true
	return nil
}

// promptConfirmer asks on errOut and reads a y/yes answer from in.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(ctx context.Context, prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	line, err := readLine(p.in)
	if err != nil {
		return false
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// readLine reads one trimmed line. A final line without a newline counts.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
