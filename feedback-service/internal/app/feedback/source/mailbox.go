package source

import (
	"context"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/email"
	"feedbackhub/feedback-service/internal/app/feedback/entity"
)

// MailboxAdapter читает входящие письма через Gmail-подобный API.
// Fetch отдаёт по одному RawItem на тред, ключ треда служит внешним id.
type MailboxAdapter struct {
	client *ProviderClient
}

func NewMailboxAdapter(client *ProviderClient) *MailboxAdapter {
	return &MailboxAdapter{client: client}
}

func (a *MailboxAdapter) Name() string     { return a.client.Name() }
func (a *MailboxAdapter) Configured() bool { return a.client.Configured() }

type gmailListResponse struct {
	Messages []gmailMessage `json:"messages"`
}

type gmailMessage struct {
	ID           string   `json:"id"`
	ThreadID     string   `json:"threadId"`
	LabelIDs     []string `json:"labelIds"`
	InternalDate string   `json:"internalDate"` // миллисекунды unix строкой
	Snippet      string   `json:"snippet"`
	Body         string   `json:"body"`
	Payload      struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
	} `json:"payload"`
}

func (a *MailboxAdapter) FetchMessages(ctx context.Context, mailbox string, opts entity.FetchOptions) ([]entity.EmailMessage, error) {
	query := url.Values{}
	query.Set("labelIds", "INBOX")
	if !opts.Since.IsZero() {
		query.Set("q", "after:"+strconv.FormatInt(opts.Since.Unix(), 10))
	}
	if opts.MaxItems > 0 {
		query.Set("maxResults", strconv.Itoa(opts.MaxItems))
	}

	var resp gmailListResponse
	found, err := a.client.GetJSON(ctx, "/mailboxes/"+url.PathEscape(mailbox)+"/messages", query, &resp)
	if err != nil || !found {
		return nil, err
	}

	messages := make([]entity.EmailMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msg := mapGmailMessage(m)
		if !opts.Since.IsZero() && msg.ReceivedAt.Before(opts.Since) {
			continue
		}
		messages = append(messages, msg)
	}
	if opts.MaxItems > 0 && len(messages) > opts.MaxItems {
		messages = messages[:opts.MaxItems]
	}

	return messages, nil
}

func (a *MailboxAdapter) Fetch(ctx context.Context, mailbox string, opts entity.FetchOptions) (*entity.FetchResult, error) {
	messages, err := a.FetchMessages(ctx, mailbox, opts)
	if err != nil {
		return &entity.FetchResult{}, err
	}

	threads := email.GroupThreads(messages)
	items := make([]entity.RawItem, 0, len(threads))
	for _, t := range threads {
		items = append(items, email.ToRawItem(t, mailbox))
	}

	return &entity.FetchResult{Items: items}, nil
}

func mapGmailMessage(m gmailMessage) entity.EmailMessage {
	msg := entity.EmailMessage{
		ID:       m.ID,
		ThreadID: m.ThreadID,
		Body:     m.Body,
	}
	if msg.Body == "" {
		msg.Body = m.Snippet
	}

	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			msg.Subject = h.Value
		case "from":
			if addr, err := mail.ParseAddress(h.Value); err == nil {
				msg.FromName = addr.Name
				msg.FromAddress = strings.ToLower(addr.Address)
			} else {
				msg.FromAddress = strings.ToLower(strings.TrimSpace(h.Value))
			}
		case "in-reply-to":
			msg.InReplyTo = strings.TrimSpace(h.Value)
		}
	}

	if ms, err := strconv.ParseInt(m.InternalDate, 10, 64); err == nil {
		msg.ReceivedAt = time.UnixMilli(ms).UTC()
	}
	for _, label := range m.LabelIDs {
		if label == "UNREAD" {
			msg.Unread = true
		}
	}
	return msg
}
