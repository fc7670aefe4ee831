package main

import (
	"bufio"
	"bytes"
	"chat-relay/errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newPrompter(input string) (prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return prompter{in: bufio.NewReader(strings.NewReader(input)), out: &out}, &out
}

func TestResolveTarget_From_Args(t *testing.T) {
	req := require.New(t)
	p, out := newPrompter("")

	target, err := resolveTarget([]string{"10.0.0.5", "9000", "alice"}, p)

	req.NoError(err)
	req.Equal("10.0.0.5:9000", target.address())
	req.Equal("alice", target.username)
	req.Empty(out.String())
}

func TestResolveTarget_Invalid_Port_Arg(t *testing.T) {
	p, _ := newPrompter("")

	_, err := resolveTarget([]string{"10.0.0.5", "ninety", "alice"}, p)

	require.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestResolveTarget_Prompts_With_Defaults(t *testing.T) {
	req := require.New(t)

	// Given the user accepts the defaults and first gives an empty name
	p, out := newPrompter("\n\n\nalice\nhello\n")

	target, err := resolveTarget(nil, p)

	// Then the defaults are used and the name is asked again
	req.NoError(err)
	req.Equal("127.0.0.1:8080", target.address())
	req.Equal("alice", target.username)
	req.Contains(out.String(), "Server [127.0.0.1]: ")
	req.Contains(out.String(), "Port [8080]: ")
	req.Contains(out.String(), "Username cannot be empty.")

	// And the following lines stay available for the chat session
	rest, err := io.ReadAll(p.in)
	req.NoError(err)
	req.Equal("hello\n", string(rest))
}

func TestResolveTarget_Invalid_Prompted_Port(t *testing.T) {
	req := require.New(t)
	p, out := newPrompter("chat.example.com\r\nabc\r\nbob")

	target, err := resolveTarget(nil, p)

	req.NoError(err)
	req.Equal("chat.example.com:8080", target.address())
	req.Equal("bob", target.username)
	req.Contains(out.String(), "Invalid port, using 8080")
}

func TestResolveTarget_Input_Closed(t *testing.T) {
	p, _ := newPrompter("127.0.0.1\n")

	_, err := resolveTarget(nil, p)

	require.ErrorIs(t, err, io.EOF)
}
