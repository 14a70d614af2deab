// Package chat keeps the site assistant's per-visitor transcript.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/areiqi/sitedb/internal/localstore"
)

// Roles of a transcript message
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// KeyPrefix namespaces transcripts in local storage
const KeyPrefix = "areiqi_ai_v4/"

// Texts shown by the assistant
const (
	Greeting          = "أهلاً بك في العريقي للهندسة الموحدة. أنا مساعدك الرقمي المدمج، يمكنني مساعدتك في استكشاف خدماتنا ومشاريعنا الميدانية أو توجيهك للمهندس المختص. كيف يمكنني خدمتك؟"
	EmptyReply        = "عذراً، لم أستطع معالجة الطلب حالياً."
	ConnectionFailure = "حدث خطأ في الاتصال بنظام الذكاء الاصطناعي. يرجى محاولة التواصل عبر الهاتف: 777403614"
	SystemInstruction = "أنت المساعد الذكي لشركة العريقي للخدمات الهندسية. الشركة متخصصة في أتمتة المصانع، مجموعات التوليد، والطاقة الهجينة. ردودك يجب أن تكون تقنية قصيرة ومفيدة. للطوارئ الميدانية: 777403614."
)

// ErrEmptyMessage is returned when a visitor sends only whitespace
var ErrEmptyMessage = errors.New("message is empty")

// Message is one transcript line
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Transcript stores at most limit messages per visitor; the oldest are dropped first
type Transcript struct {
	local *localstore.Store
	limit int
	mu    sync.Mutex
}

// NewTranscript creates a Transcript. A limit below 1 keeps a single message.
func NewTranscript(local *localstore.Store, limit int) *Transcript {
	return &Transcript{local: local, limit: max(limit, 1)}
}

// Load returns the visitor's transcript, starting with the greeting for a new visitor
func (t *Transcript) Load(ctx context.Context, visitor string) ([]Message, error) {
	var msgs []Message
	ok, err := t.local.GetJSON(ctx, KeyPrefix+visitor, &msgs)
	if err != nil {
		return nil, err
	}
	if !ok || len(msgs) == 0 {
		return []Message{{Role: RoleModel, Text: Greeting}}, nil
	}
	return msgs, nil
}

// Append adds msgs to the visitor's transcript and returns the stored result
func (t *Transcript) Append(ctx context.Context, visitor string, msgs ...Message) ([]Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, err := t.Load(ctx, visitor)
	if err != nil {
		return nil, err
	}
	current = append(current, msgs...)
	if over := len(current) - t.limit; over > 0 {
		current = current[over:]
	}
	if err := t.local.SetJSON(ctx, KeyPrefix+visitor, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Clear forgets the visitor's transcript
func (t *Transcript) Clear(ctx context.Context, visitor string) error {
	return t.local.Remove(ctx, KeyPrefix+visitor)
}

// Prompt is one completion request
type Prompt struct {
	System      string
	Text        string
	Temperature float64
}

// Completer produces the assistant's reply text
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Offline is the Completer used when no completion service is configured
type Offline struct{}

func (Offline) Complete(context.Context, Prompt) (string, error) {
	return "", errors.New("no completion service configured")
}

// Assistant answers visitor messages and records both sides in the transcript
type Assistant struct {
	transcript *Transcript
	completer  Completer
}

// NewAssistant creates an Assistant
func NewAssistant(transcript *Transcript, completer Completer) *Assistant {
	return &Assistant{transcript: transcript, completer: completer}
}

// History returns the visitor's transcript
func (a *Assistant) History(ctx context.Context, visitor string) ([]Message, error) {
	return a.transcript.Load(ctx, visitor)
}

// Send records text, asks the completer and records its reply. A failed
// completion becomes the connection failure text rather than an error.
func (a *Assistant) Send(ctx context.Context, visitor, text string) ([]Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := a.transcript.Append(ctx, visitor, Message{Role: RoleUser, Text: text}); err != nil {
		return nil, err
	}

	reply, err := a.completer.Complete(ctx, Prompt{System: SystemInstruction, Text: text, Temperature: 0.1})
	switch {
	case err != nil:
		reply = ConnectionFailure
	case strings.TrimSpace(reply) == "":
		reply = EmptyReply
	}
	return a.transcript.Append(ctx, visitor, Message{Role: RoleModel, Text: reply})
}
