package client

import (
	"chat-relay/domain"
	"chat-relay/protocol"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gookit/color"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	statusStyle = color.New(color.FgCyan)
	errorStyle  = color.New(color.FgRed, color.OpBold)
	senderStyle = color.New(color.FgGreen, color.OpBold)
)

// Renderer prints relay events to a terminal. Status events become
// timestamped lines, chat messages are printed as "sender: content".
type Renderer struct {
	mu      sync.Mutex
	out     io.Writer
	colours bool
	now     func() time.Time
}

func NewRenderer(out io.Writer, colours bool) *Renderer {
	return &Renderer{out: out, colours: colours, now: time.Now}
}

func (r *Renderer) Render(msg protocol.Message) {
	switch msg.KindOrChat() {
	case domain.Join, domain.Leave, domain.System:
		r.Info(msg.Content)
	case domain.UserList:
		r.Info("Online users: " + msg.Content)
	case domain.Error:
		r.Error(msg.Content)
	default:
		r.Chat(msg.Sender, msg.Content)
	}
}

func (r *Renderer) Info(text string) {
	r.println(r.paint(statusStyle, fmt.Sprintf("[%s] %s", r.now().Format(timeLayout), text)))
}

func (r *Renderer) Error(text string) {
	r.println(r.paint(errorStyle, fmt.Sprintf("[%s] ERROR: %s", r.now().Format(timeLayout), text)))
}

func (r *Renderer) Chat(sender, content string) {
	r.println(r.paint(senderStyle, sender) + ": " + content)
}

// Plain prints text as is.
func (r *Renderer) Plain(text string) {
	r.println(text)
}

func (r *Renderer) paint(style color.Style, text string) string {
	if !r.colours {
		return text
	}
	return style.Render(text)
}

func (r *Renderer) println(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.out, line)
}
