package main

import (
	"bufio"
	"chat-relay/errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

const (
	defaultServer = "127.0.0.1"
	defaultPort   = 8080
)

// target is where to connect and under which name.
type target struct {
	server   string
	port     int
	username string
}

func (t target) address() string {
	return net.JoinHostPort(t.server, strconv.Itoa(t.port))
}

// prompter asks questions on out and reads the answers from in. The same
// reader later feeds the chat session, so no typed line is lost.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// resolveTarget takes the target from the three positional arguments, or
// asks for it interactively when fewer are given.
func resolveTarget(args []string, p prompter) (target, error) {
	if len(args) >= 3 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return target{}, fmt.Errorf("%w: invalid port %q", errors.ErrInvalidConfig, args[1])
		}
		if args[2] == "" {
			return target{}, fmt.Errorf("%w: username cannot be empty", errors.ErrInvalidConfig)
		}
		return target{server: args[0], port: port, username: args[2]}, nil
	}

	server, err := p.orDefault("Server", defaultServer)
	if err != nil {
		return target{}, err
	}
	portText, err := p.orDefault("Port", strconv.Itoa(defaultPort))
	if err != nil {
		return target{}, err
	}
	port, err := strconv.Atoi(portText)
	if err != nil {
		_, _ = fmt.Fprintf(p.out, "Invalid port, using %d\n", defaultPort)
		port = defaultPort
	}
	username, err := p.username()
	if err != nil {
		return target{}, err
	}
	return target{server: server, port: port, username: username}, nil
}

func (p prompter) orDefault(label, def string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (p prompter) username() (string, error) {
	for {
		_, _ = fmt.Fprint(p.out, "Username: ")
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
		_, _ = fmt.Fprintln(p.out, "Username cannot be empty.")
	}
}

// readLine returns the next line without its line ending. A last line
// without newline is returned as is; io.EOF is only reported when nothing was read.
func (p prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read prompt answer: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
