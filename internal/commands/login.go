package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/oauth2"

	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command. It stores a bearer token that
// later commands send with every API request.
type LoginCmd struct {
	token string
	in    io.Reader
}

// SetToken sets the token to store (for testing).
func (c *LoginCmd) SetToken(token string) {
	c.token = token
}

// SetInput sets where the token is read from when --token is not given (for testing).
func (c *LoginCmd) SetInput(in io.Reader) {
	c.in = in
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Store an API token" }
func (c *LoginCmd) Usage() string      { return "taskmgr login [--token <token>]" }
func (c *LoginCmd) NeedsService() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.token, "token", "", "bearer token (read from stdin when omitted)")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	token := strings.TrimSpace(c.token)

	if token == "" {
		if _, err := cfg.BearerToken(); err == nil && cfg.HasToken() {
			if !cfg.Quiet {
				fmt.Fprintln(out, "already logged in")
			}
			return exitcode.Success
		}

		in := c.in
		if in == nil {
			in = os.Stdin
		}
		fmt.Fprint(errOut, "Paste API token: ")
		line, err := readLine(in)
		if err != nil {
			fmt.Fprintln(errOut)
			fmt.Fprintln(errOut, "error: no token given")
			return exitcode.AuthError
		}
		token = line
	}

	if token == "" {
		fmt.Fprintln(errOut, "error: no token given")
		return exitcode.AuthError
	}

	if err := cfg.SaveToken(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
