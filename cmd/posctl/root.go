package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tillpoint/internal/app"
	"tillpoint/internal/logger"
	"tillpoint/internal/services"
)

// readPassword is swapped out by tests.
var readPassword = term.ReadPassword

var errNotSignedIn = errors.New("not signed in")

// cli carries the terminal a command runs against.
type cli struct {
	open func() (*app.App, error)
	app  *app.App

	reader *bufio.Reader
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	if err := c.app.Close(); err != nil {
		logger.Get().Warnw("Failed to close connections", "error", err)
	}
	c.app = nil
}

// restore picks up the session persisted on this terminal.
func (c *cli) restore(cmd *cobra.Command) (*services.Session, error) {
	s, err := c.app.Session.RestoreSession(cmd.Context())
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errNotSignedIn
	}
	return s, nil
}

// secret prompts for a password or PIN without echo. Piped input is read a
// line at a time.
func (c *cli) secret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return c.line(in)
}

func (c *cli) line(in io.Reader) (string, error) {
	if c.reader == nil {
		c.reader = bufio.NewReader(in)
	}
	line, err := c.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "posctl",
		Short:         "Operate a Tillpoint terminal session from the shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.app != nil {
				return nil
			}
			a, err := c.open()
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}

	root.AddCommand(
		newLoginCmd(c),
		newRegisterCmd(c),
		newWhoamiCmd(c),
		newSwitchCmd(c),
		newUsersCmd(c),
		newRefreshCmd(c),
		newLogoutCmd(c),
		newAdminCmd(c),
	)
	return root
}

// execute runs root and prints a failure the way users expect to read it.
func execute(root *cobra.Command) error {
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}
	return err
}
