package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type Credentials struct {
	Username string
	Password string
}

// Prompter supplies credentials when a session first authenticates.
type Prompter interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context) (Credentials, error)

func (f PrompterFunc) Credentials(ctx context.Context) (Credentials, error) {
	return f(ctx)
}

// TerminalPrompter asks for the username on In and reads the password
// without echo when In is a terminal. Preset values skip their prompt.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer

	Username string
	Password string
}

// NewTerminalPrompter prompts on the process stdin/stderr.
func NewTerminalPrompter(username, password string) *TerminalPrompter {
	return &TerminalPrompter{
		In:       os.Stdin,
		Out:      os.Stderr,
		Username: username,
		Password: password,
	}
}

func (p *TerminalPrompter) Credentials(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	creds := Credentials{Username: p.Username, Password: p.Password}
	reader := bufio.NewReader(p.In)

	if creds.Username == "" {
		fmt.Fprint(p.Out, "ICA Username: ")
		line, err := readLine(reader)
		if err != nil {
			return Credentials{}, fmt.Errorf("read username: %w", err)
		}
		creds.Username = line
	}

	if creds.Password == "" {
		fmt.Fprint(p.Out, "ICA Password: ")
		secret, err := p.readSecret(reader)
		fmt.Fprintln(p.Out)
		if err != nil {
			return Credentials{}, fmt.Errorf("read password: %w", err)
		}
		creds.Password = secret
	}

	if creds.Username == "" {
		return Credentials{}, errors.New("username is required")
	}
	return creds, nil
}

func (p *TerminalPrompter) readSecret(reader *bufio.Reader) (string, error) {
	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}
	return readLine(reader)
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
