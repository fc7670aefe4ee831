package protocol

import (
	"chat-relay/domain"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Field keys of the flat event record.
const (
	keyType    = "type"
	keySender  = "sender"
	keyContent = "content"
	keyTime    = "ts"
)

// Message is the result of decoding a payload. Fields that could not be
// located are left empty; Kind is empty when the payload carried no type.
type Message struct {
	Kind      domain.Kind
	Sender    string
	Content   string
	Timestamp time.Time
}

// KindOrChat returns the decoded kind, defaulting to CHAT when absent.
func (m Message) KindOrChat() domain.Kind {
	if m.Kind == "" {
		return domain.Chat
	}
	return m.Kind
}

// Event converts the decoded message into a domain event.
func (m Message) Event() domain.Event {
	return domain.Event{
		Kind:      m.KindOrChat(),
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

// Encode renders an event record stamped with the current time.
func Encode(kind domain.Kind, sender, content string) []byte {
	return encodeAt(kind, sender, content, time.Now())
}

// EncodeEvent encodes evt. Its Timestamp is ignored: encoding always stamps a fresh one.
func EncodeEvent(evt domain.Event) []byte {
	return Encode(evt.Kind, evt.Sender, evt.Content)
}

func encodeAt(kind domain.Kind, sender, content string, at time.Time) []byte {
	var b strings.Builder
	b.Grow(len(sender) + len(content) + 64)
	b.WriteString(`{"` + keyType + `":"`)
	b.WriteString(EscapeField(string(kind)))
	b.WriteString(`","` + keySender + `":"`)
	b.WriteString(EscapeField(sender))
	b.WriteString(`","` + keyContent + `":"`)
	b.WriteString(EscapeField(content))
	b.WriteString(`","` + keyTime + `":`)
	b.WriteString(strconv.FormatInt(at.Unix(), 10))
	b.WriteByte('}')
	return []byte(b.String())
}

// EscapeField escapes backslash and quote with a leading backslash and
// newline as the two-character sequence \n.
func EscapeField(s string) string {
	if !strings.ContainsAny(s, "\\\"\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// UnescapeField reverses EscapeField. A trailing lone backslash is kept as is.
func UnescapeField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	d := decoder{src: s}
	var b strings.Builder
	b.Grow(len(s))
	for d.pos < len(s) {
		c := s[d.pos]
		if c != '\\' || d.pos+1 == len(s) {
			b.WriteByte(c)
			d.pos++
			continue
		}
		d.pos++
		d.unescape(&b)
	}
	return b.String()
}

// Decode reads the fields of a flat event record. It never fails: missing,
// reordered and unknown fields are tolerated, and a key or value that cannot
// be parsed is skipped up to the next top-level separator so that the fields
// after it are still found.
func Decode(payload []byte) Message {
	d := decoder{src: string(payload)}
	var (
		msg  Message
		seen = make(map[string]bool, 4)
	)
	d.skipSpace()
	if !d.consume('{') {
		return msg
	}
	for {
		d.skipSpace()
		if d.eof() || d.peek() == '}' {
			return msg
		}
		if d.consume(',') {
			continue
		}
		if d.peek() != '"' {
			d.skipValue()
			continue
		}
		key, ok := d.readString()
		if !ok {
			return msg
		}
		d.skipSpace()
		if !d.consume(':') {
			d.skipValue()
			continue
		}
		d.skipSpace()
		if d.eof() {
			return msg
		}
		switch c := d.peek(); {
		case c == '"':
			value, ok := d.readString()
			if !ok {
				return msg
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			switch key {
			case keyType:
				msg.Kind = domain.Kind(value)
			case keySender:
				msg.Sender = value
			case keyContent:
				msg.Content = value
			}
		case c == '-' || (c >= '0' && c <= '9'):
			number := d.readNumber()
			if key == keyTime && !seen[key] {
				seen[key] = true
				if secs, err := strconv.ParseInt(number, 10, 64); err == nil {
					msg.Timestamp = time.Unix(secs, 0)
				}
			}
		default:
			// Literals, nested values and bare words carry nothing we read.
			d.skipValue()
		}
	}
}

type decoder struct {
	src string
	pos int
}

func (d *decoder) eof() bool { return d.pos >= len(d.src) }

func (d *decoder) peek() byte { return d.src[d.pos] }

func (d *decoder) consume(c byte) bool {
	if d.eof() || d.src[d.pos] != c {
		return false
	}
	d.pos++
	return true
}

func (d *decoder) skipSpace() {
	for !d.eof() {
		switch d.src[d.pos] {
		case ' ', '\t', '\r', '\n':
			d.pos++
		default:
			return
		}
	}
}

// readString reads a quoted string starting at the opening quote.
func (d *decoder) readString() (string, bool) {
	if !d.consume('"') {
		return "", false
	}
	var b strings.Builder
	for !d.eof() {
		c := d.src[d.pos]
		switch c {
		case '"':
			d.pos++
			return b.String(), true
		case '\\':
			d.pos++
			if d.eof() {
				return "", false
			}
			d.unescape(&b)
		default:
			b.WriteByte(c)
			d.pos++
		}
	}
	return "", false
}

// unescape writes the character designated by the escape sequence whose
// backslash has already been consumed.
func (d *decoder) unescape(b *strings.Builder) {
	c := d.src[d.pos]
	d.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'u':
		if d.pos+4 <= len(d.src) {
			if r, err := strconv.ParseUint(d.src[d.pos:d.pos+4], 16, 32); err == nil {
				b.WriteRune(rune(r))
				d.pos += 4
				return
			}
		}
		b.WriteByte('u')
	default:
		if c < utf8.RuneSelf {
			b.WriteByte(c)
			return
		}
		// Escaped multi-byte rune: copy its remaining bytes untouched.
		d.pos--
		_, size := utf8.DecodeRuneInString(d.src[d.pos:])
		b.WriteString(d.src[d.pos : d.pos+size])
		d.pos += size
	}
}

func (d *decoder) readNumber() string {
	start := d.pos
	if d.src[d.pos] == '-' {
		d.pos++
	}
	for !d.eof() {
		c := d.src[d.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			d.pos++
			continue
		}
		break
	}
	return d.src[start:d.pos]
}

// skipValue advances to the next comma or closing brace that is outside any
// string, array or object, leaving it unconsumed.
func (d *decoder) skipValue() {
	depth := 0
	for !d.eof() {
		switch d.src[d.pos] {
		case '"':
			if _, ok := d.readString(); !ok {
				d.pos = len(d.src)
			}
			continue
		case '{', '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '}':
			if depth == 0 {
				return
			}
			depth--
		case ',':
			if depth == 0 {
				return
			}
		}
		d.pos++
	}
}
