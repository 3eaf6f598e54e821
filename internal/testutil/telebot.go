// Package testutil holds fakes shared by handler and middleware tests.
package testutil

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	telebot "gopkg.in/telebot.v3"
)

var updateIDs atomic.Int64

// Call is one outgoing Send, Edit or Respond.
type Call struct {
	What any
	Opts []any
}

// Context is an in-memory telebot.Context. Methods the bot never calls panic through the
// nil embedded interface.
type Context struct {
	telebot.Context

	mu        sync.Mutex
	update    telebot.Update
	sender    *telebot.User
	store     map[string]any
	Sent      []Call
	Edited    []Call
	Responses []*telebot.CallbackResponse
	SendErr   error
}

func newContext(user *telebot.User, update telebot.Update) *Context {
	update.ID = int(updateIDs.Add(1))
	return &Context{update: update, sender: user, store: make(map[string]any)}
}

func chatOf(user *telebot.User) *telebot.Chat {
	return &telebot.Chat{ID: user.ID, Username: user.Username, FirstName: user.FirstName}
}

// User returns a Telegram user with the given id and username.
func User(id int64, username string) *telebot.User {
	return &telebot.User{ID: id, Username: username, FirstName: "Test"}
}

// NewText is a text message from user.
func NewText(user *telebot.User, text string) *Context {
	return newContext(user, telebot.Update{Message: &telebot.Message{
		ID:     1,
		Sender: user,
		Chat:   chatOf(user),
		Text:   text,
	}})
}

// NewPhoto is a photo message from user.
func NewPhoto(user *telebot.User, fileID string) *Context {
	return newContext(user, telebot.Update{Message: &telebot.Message{
		ID:     2,
		Sender: user,
		Chat:   chatOf(user),
		Photo:  &telebot.Photo{File: telebot.File{FileID: fileID}},
	}})
}

// NewCallback is an inline button press by user.
func NewCallback(user *telebot.User, data string) *Context {
	msg := &telebot.Message{ID: 3, Chat: chatOf(user)}
	return newContext(user, telebot.Update{Callback: &telebot.Callback{
		ID:      "cb",
		Sender:  user,
		Message: msg,
		Data:    data,
	}})
}

// Redeliver returns a fresh context carrying the same update, as Telegram does on retry.
func (c *Context) Redeliver() *Context {
	return &Context{update: c.update, sender: c.sender, store: make(map[string]any)}
}

func (c *Context) Update() telebot.Update { return c.update }

func (c *Context) Message() *telebot.Message {
	switch {
	case c.update.Message != nil:
		return c.update.Message
	case c.update.Callback != nil:
		return c.update.Callback.Message
	default:
		return nil
	}
}

func (c *Context) Callback() *telebot.Callback { return c.update.Callback }

func (c *Context) Sender() *telebot.User { return c.sender }

func (c *Context) Chat() *telebot.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Text() string {
	m := c.Message()
	if m == nil {
		return ""
	}
	if m.Caption != "" {
		return m.Caption
	}
	return m.Text
}

func (c *Context) Send(what any, opts ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sent = append(c.Sent, Call{What: what, Opts: opts})
	return c.SendErr
}

func (c *Context) Edit(what any, opts ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Edited = append(c.Edited, Call{What: what, Opts: opts})
	return c.SendErr
}

func (c *Context) Respond(resp ...*telebot.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(resp) == 0 {
		resp = []*telebot.CallbackResponse{{}}
	}
	c.Responses = append(c.Responses, resp...)
	return nil
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = val
}

// Texts returns every string sent, in order.
func (c *Context) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return texts(c.Sent)
}

// EditedTexts returns every string edited in, in order.
func (c *Context) EditedTexts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return texts(c.Edited)
}

// LastMarkup returns the reply markup of the last send, if any.
func (c *Context) LastMarkup() *telebot.ReplyMarkup {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Sent) == 0 {
		return nil
	}
	for _, opt := range c.Sent[len(c.Sent)-1].Opts {
		if markup, ok := opt.(*telebot.ReplyMarkup); ok {
			return markup
		}
	}
	return nil
}

func texts(calls []Call) []string {
	out := make([]string, 0, len(calls))
	for _, call := range calls {
		if s, ok := call.What.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
