package protocol

import (
	"chat-relay/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncode_Produces_Flat_Record(t *testing.T) {
	req := require.New(t)
	at := time.Unix(1700000000, 0)

	payload := encodeAt(domain.Chat, "alice", "hello", at)

	req.Equal(`{"type":"CHAT","sender":"alice","content":"hello","ts":1700000000}`, string(payload))
}

func TestEncode_Stamps_Current_Time(t *testing.T) {
	req := require.New(t)
	before := time.Now().Unix()

	msg := Decode(Encode(domain.Join, "bob", "bob joined the chat"))

	req.Equal(domain.Join, msg.Kind)
	req.Equal("bob", msg.Sender)
	req.Equal("bob joined the chat", msg.Content)
	req.GreaterOrEqual(msg.Timestamp.Unix(), before)
	req.LessOrEqual(msg.Timestamp.Unix(), time.Now().Unix())
}

func TestEncodeEvent_Ignores_Stale_Timestamp(t *testing.T) {
	req := require.New(t)
	evt := domain.Event{Kind: domain.System, Sender: domain.ServerSender, Content: "x", Timestamp: time.Unix(42, 0)}

	msg := Decode(EncodeEvent(evt))

	req.NotEqual(int64(42), msg.Timestamp.Unix())
	req.Equal(evt.Kind, msg.Kind)
}

func TestEscapeField_Idempotence(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		`back\slash`,
		`"quoted"`,
		"multi\nline\n",
		`\n is not a newline`,
		`trailing backslash\`,
		`\\"\\"`,
		"tab\tand\rreturn",
		"unicode ✓ 日本語 \\✓",
		`{"type":"JOIN"}`,
	}
	for _, s := range inputs {
		require.Equal(t, s, UnescapeField(EscapeField(s)), "input %q", s)
	}
}

func TestEscapeField_Escapes(t *testing.T) {
	req := require.New(t)

	req.Equal(`a\\b`, EscapeField(`a\b`))
	req.Equal(`say \"hi\"`, EscapeField(`say "hi"`))
	req.Equal(`one\ntwo`, EscapeField("one\ntwo"))
}

func TestDecode_RoundTrip_Of_Special_Content(t *testing.T) {
	req := require.New(t)
	content := "line one\nhe said \"hi\", then left\\ \"type\":\"JOIN\""

	msg := Decode(Encode(domain.Chat, `ali"ce`, content))

	req.Equal(domain.Chat, msg.Kind)
	req.Equal(`ali"ce`, msg.Sender)
	req.Equal(content, msg.Content)
}

func TestDecode_Tolerance(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected Message
	}{
		{
			name:     "reordered fields and whitespace",
			payload:  ` { "content" : "hi" , "ts": 10, "type":"LEAVE", "sender":"bob" } `,
			expected: Message{Kind: domain.Leave, Sender: "bob", Content: "hi", Timestamp: time.Unix(10, 0)},
		},
		{
			name:     "missing type",
			payload:  `{"content":"hello"}`,
			expected: Message{Content: "hello"},
		},
		{
			name:     "additional fields",
			payload:  `{"room":"lobby","type":"CHAT","prio":3,"ok":true,"x":null,"content":"yo"}`,
			expected: Message{Kind: domain.Chat, Content: "yo"},
		},
		{
			name:     "first occurrence wins",
			payload:  `{"content":"first","content":"second"}`,
			expected: Message{Content: "first"},
		},
		{
			name:     "unterminated value keeps earlier fields",
			payload:  `{"type":"CHAT","content":"never closed`,
			expected: Message{Kind: domain.Chat},
		},
		{
			name:     "unescaped quote truncates the value and decoding resumes after it",
			payload:  `{"sender":"eve","content":"bad "quote" here","type":"JOIN"}`,
			expected: Message{Kind: domain.Join, Sender: "eve", Content: "bad "},
		},
		{
			name:     "nested object before content is skipped",
			payload:  `{"type":"CHAT","meta":{"a":1,"b":"}"},"content":"kept"}`,
			expected: Message{Kind: domain.Chat, Content: "kept"},
		},
		{
			name:     "nested object as first field",
			payload:  `{"meta":{"k":"v"},"content":"hi"}`,
			expected: Message{Content: "hi"},
		},
		{
			name:     "array before content is skipped",
			payload:  `{"type":"CHAT","extra":[1,2],"content":"hi"}`,
			expected: Message{Kind: domain.Chat, Content: "hi"},
		},
		{
			name:     "bare word value is skipped",
			payload:  `{"type":"CHAT","sender":bob,"content":"hi"}`,
			expected: Message{Kind: domain.Chat, Content: "hi"},
		},
		{
			name:     "key without colon is skipped",
			payload:  `{"sender" "bob","content":"hi"}`,
			expected: Message{Content: "hi"},
		},
		{
			name:     "unquoted key is skipped",
			payload:  `{sender:"bob","content":"hi","ts":7}`,
			expected: Message{Content: "hi", Timestamp: time.Unix(7, 0)},
		},
		{
			name:     "json escapes",
			payload:  `{"content":"tab\there é\/"}`,
			expected: Message{Content: "tab\there é/"},
		},
		{
			name:     "not an object",
			payload:  `hello world`,
			expected: Message{},
		},
		{
			name:     "empty payload",
			payload:  ``,
			expected: Message{},
		},
		{
			name:     "non integer timestamp is ignored",
			payload:  `{"ts":12.5,"content":"c"}`,
			expected: Message{Content: "c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Decode([]byte(tt.payload)))
		})
	}
}

func TestMessage_KindOrChat(t *testing.T) {
	req := require.New(t)

	req.Equal(domain.Chat, Message{}.KindOrChat())
	req.Equal(domain.UserList, Message{Kind: domain.UserList}.KindOrChat())
	req.Equal(domain.Chat, Message{Content: "x"}.Event().Kind)
}
