package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mailgunRequest struct {
	path, user, key         string
	from, to, subject, text string
	html                    string
	tags                    []string
}

func newMailgunServer(t *testing.T, status int, got *mailgunRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.user, got.key, _ = r.BasicAuth()
		got.from = r.FormValue("from")
		got.to = r.FormValue("to")
		got.subject = r.FormValue("subject")
		got.text = r.FormValue("text")
		got.html = r.FormValue("html")
		got.tags = r.Form["o:tag"]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"message":"Queued. Thank you.","id":"<20250102.1@mg.example.com>"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"Domain not found"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMailgunSend(t *testing.T) {
	var got mailgunRequest
	srv := newMailgunServer(t, http.StatusOK, &got)
	m := NewMailgun("mg.example.com", "key-123", srv.URL+"/v3", "noreply@example.com")

	err := m.Send(context.Background(), "alice@example.com", "Hello", "plain body", "<p>html body</p>")
	require.NoError(t, err)

	assert.Equal(t, "/v3/mg.example.com/messages", got.path)
	assert.Equal(t, "api", got.user)
	assert.Equal(t, "key-123", got.key)
	assert.Equal(t, "noreply@example.com", got.from)
	assert.Equal(t, "alice@example.com", got.to)
	assert.Equal(t, "Hello", got.subject)
	assert.Equal(t, "plain body", got.text)
	assert.Equal(t, "<p>html body</p>", got.html)
	assert.Equal(t, []string{"auth-service"}, got.tags)
}

func TestMailgunResetEmail(t *testing.T) {
	var got mailgunRequest
	srv := newMailgunServer(t, http.StatusOK, &got)
	n := NewEmailNotifier(NewMailgun("mg.example.com", "key-123", srv.URL+"/v3", "noreply@example.com"))

	require.NoError(t, n.SendPasswordReset(context.Background(), sampleReset()))
	assert.Equal(t, "alice@example.com", got.to)
	assert.Equal(t, resetSubject, got.subject)
	assert.Contains(t, got.text, "/reset-password?token=tok-123")
	assert.Contains(t, got.text, "Thu, 02 Jan 2025 03:04:05 UTC")
	assert.Empty(t, got.html)
}

func TestMailgunSendErrors(t *testing.T) {
	var got mailgunRequest
	srv := newMailgunServer(t, http.StatusNotFound, &got)

	err := NewMailgun("mg.example.com", "key-123", srv.URL+"/v3", "noreply@example.com").
		Send(context.Background(), "alice@example.com", "Hello", "body", "")
	assert.ErrorContains(t, err, "mailgun send to mg.example.com")

	err = NewMailgun("mg.example.com", "", srv.URL+"/v3", "noreply@example.com").
		Send(context.Background(), "alice@example.com", "Hello", "body", "")
	assert.ErrorContains(t, err, "api-key")
}
