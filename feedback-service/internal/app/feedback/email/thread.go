package email

import (
	"encoding/base64"
	"regexp"
	"sort"
	"strings"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

const (
	maxKeyLength = 32
	noSubject    = "(no subject)"
)

// Re: / Fwd: / Fw: в начале темы, с двоеточием или без
var replyPrefixRe = regexp.MustCompile(`(?i)^\s*(?:re|fwd?)\s*(?::\s*|\s+)`)

// DisplaySubject снимает цепочку префиксов ответа/пересылки, сохраняя регистр
func DisplaySubject(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		stripped := replyPrefixRe.ReplaceAllString(s, "")
		stripped = strings.TrimSpace(stripped)
		if stripped == s {
			return s
		}
		s = stripped
	}
}

// NormalizeSubject - тема для группировки: без префиксов, в нижнем регистре
func NormalizeSubject(subject string) string {
	return strings.ToLower(DisplaySubject(subject))
}

// ThreadKey - первое непустое: thread id провайдера, In-Reply-To, message id,
// иначе base64(тема + отправитель + message id), обрезанный до 32 символов
func ThreadKey(msg entity.EmailMessage) string {
	switch {
	case msg.ThreadID != "":
		return msg.ThreadID
	case msg.InReplyTo != "":
		return msg.InReplyTo
	case msg.ID != "":
		return msg.ID
	}

	composite := NormalizeSubject(msg.Subject) + "|" + strings.ToLower(msg.FromAddress) + "|" + msg.ID
	key := base64.StdEncoding.EncodeToString([]byte(composite))
	if len(key) > maxKeyLength {
		key = key[:maxKeyLength]
	}
	return key
}

// GroupThreads группирует письма в треды.
// Треды отсортированы по последнему письму (новые сверху), письма внутри - тоже.
func GroupThreads(messages []entity.EmailMessage) []entity.Thread {
	byKey := make(map[string]*entity.Thread)
	order := make([]string, 0)

	for _, msg := range messages {
		key := ThreadKey(msg)
		t, ok := byKey[key]
		if !ok {
			t = &entity.Thread{Key: key}
			byKey[key] = t
			order = append(order, key)
		}
		t.Messages = append(t.Messages, msg)
		if msg.Unread {
			t.UnreadCount++
		}
	}

	threads := make([]entity.Thread, 0, len(order))
	for _, key := range order {
		t := byKey[key]
		sort.SliceStable(t.Messages, func(i, j int) bool {
			return newer(t.Messages[i], t.Messages[j])
		})

		latest := t.Messages[0]
		t.LastMessageAt = latest.ReceivedAt
		t.Subject = DisplaySubject(latest.Subject)
		if t.Subject == "" {
			t.Subject = noSubject
		}
		threads = append(threads, *t)
	}

	sort.SliceStable(threads, func(i, j int) bool {
		if !threads[i].LastMessageAt.Equal(threads[j].LastMessageAt) {
			return threads[i].LastMessageAt.After(threads[j].LastMessageAt)
		}
		return threads[i].Key < threads[j].Key
	})

	return threads
}

// ToRawItem сворачивает тред в один элемент импорта.
// Автор - последний отправитель не из самого ящика.
func ToRawItem(t entity.Thread, mailbox string) entity.RawItem {
	author := t.Messages[0]
	for _, msg := range t.Messages {
		if !strings.EqualFold(msg.FromAddress, mailbox) {
			author = msg
			break
		}
	}

	name := author.FromName
	if name == "" {
		name = author.FromAddress
	}

	return entity.RawItem{
		ExternalID:  t.Key,
		Title:       t.Subject,
		Text:        author.Body,
		AuthorName:  name,
		AuthorEmail: author.FromAddress,
		Timestamp:   author.ReceivedAt,
	}
}

func newer(a, b entity.EmailMessage) bool {
	if !a.ReceivedAt.Equal(b.ReceivedAt) {
		return a.ReceivedAt.After(b.ReceivedAt)
	}
	return a.ID > b.ID
}
