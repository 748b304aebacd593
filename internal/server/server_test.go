package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptgate/internal/gateway"
	"promptgate/internal/server"
)

const (
	errorBlock    = `<div class="error">`
	responseBlock = `<div class="response">`
	// The page puts a newline after the opening tag; browsers drop it.
	textareaOpen = "required>\n"
)

// echoProvider answers with a fixed text, the prompt itself, or an error.
type echoProvider struct {
	text  string
	echo  bool
	err   error
	calls atomic.Int32
}

func (p *echoProvider) ID() string { return "echo:test" }

func (p *echoProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.calls.Add(1)
	if p.err != nil {
		return "", p.err
	}
	if p.echo {
		return prompt, nil
	}
	return p.text, nil
}

func newHandler(t *testing.T, provider *echoProvider) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var gw *gateway.Gateway
	if provider == nil {
		gw = gateway.New(nil, logger)
	} else {
		gw = gateway.New(provider, logger)
	}
	return server.New(gw, logger).Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func post(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// escaped renders s through html/template exactly as the page does.
func escaped(t *testing.T, s string) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, template.Must(template.New("").Parse(`{{.}}`)).Execute(&b, s))
	return b.String()
}

func TestIndex_Get(t *testing.T) {
	provider := &echoProvider{text: "unused"}
	rec := get(t, newHandler(t, provider), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `<textarea id="prompt" name="prompt" rows="4" `+textareaOpen+`</textarea>`)
	assert.NotContains(t, body, errorBlock)
	assert.NotContains(t, body, responseBlock)
	assert.Zero(t, provider.calls.Load())
}

func TestIndex_PostSuccess(t *testing.T) {
	rec := post(t, newHandler(t, &echoProvider{text: "Hi there"}), url.Values{"prompt": {"Hello"}})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, textareaOpen+`Hello</textarea>`)
	assert.Contains(t, body, responseBlock+`Hi there</div>`)
	assert.NotContains(t, body, errorBlock)
}

func TestIndex_PostMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("prompt", "Hello"))
	require.NoError(t, mw.Close())

	provider := &echoProvider{text: "Hi there"}
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newHandler(t, provider).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, textareaOpen+`Hello</textarea>`)
	assert.Contains(t, body, responseBlock+`Hi there</div>`)
	assert.NotContains(t, body, errorBlock)
	assert.EqualValues(t, 1, provider.calls.Load())
}

func TestIndex_PostMalformedMultipart(t *testing.T) {
	provider := &echoProvider{text: "unused"}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not a multipart body"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()
	newHandler(t, provider).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, provider.calls.Load())
}

func TestIndex_PostKeepsLeadingNewline(t *testing.T) {
	rec := post(t, newHandler(t, &echoProvider{text: "ok"}), url.Values{"prompt": {"\nHello"}})

	// One newline belongs to the markup, the second is the prompt's own.
	assert.Contains(t, rec.Body.String(), "required>\n\nHello</textarea>")
}

func TestIndex_PostPreservesMultilineResponse(t *testing.T) {
	text := "first line\n\n    indented\nlast"
	rec := post(t, newHandler(t, &echoProvider{text: text}), url.Values{"prompt": {"Hello"}})

	assert.Contains(t, rec.Body.String(), responseBlock+text+`</div>`)
}

func TestIndex_PostEmptyPrompt(t *testing.T) {
	provider := &echoProvider{text: "unused"}
	h := newHandler(t, provider)

	for _, form := range []url.Values{{"prompt": {""}}, {}} {
		rec := post(t, h, form)

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, errorBlock+escaped(t, gateway.MsgEmptyPrompt)+`</div>`)
		assert.NotContains(t, body, responseBlock)
	}
	assert.Zero(t, provider.calls.Load())
}

func TestIndex_PostUnconfigured(t *testing.T) {
	h := newHandler(t, nil)

	for _, prompt := range []string{"", "Hello", gofakeit.Word()} {
		rec := post(t, h, url.Values{"prompt": {prompt}})

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, errorBlock+escaped(t, gateway.MsgNotConfigured)+`</div>`)
		assert.Contains(t, body, textareaOpen+escaped(t, prompt)+`</textarea>`)
		assert.NotContains(t, body, responseBlock)
	}
}

func TestIndex_PostProviderErrorKeepsServing(t *testing.T) {
	provider := &echoProvider{err: errors.New("quota <exceeded>")}
	h := newHandler(t, provider)

	rec := post(t, h, url.Values{"prompt": {"Hello"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, errorBlock)
	assert.Contains(t, body, "quota &lt;exceeded&gt;")
	assert.NotContains(t, body, "quota <exceeded>")
	assert.NotContains(t, body, responseBlock)
	assert.Contains(t, body, textareaOpen+`Hello</textarea>`)

	provider.err = nil
	provider.text = "back again"
	rec = post(t, h, url.Values{"prompt": {"Hello"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), responseBlock+`back again</div>`)
}

func TestIndex_EscapesMarkup(t *testing.T) {
	h := newHandler(t, &echoProvider{echo: true})

	prompts := []string{
		`<script>alert(1)</script>`,
		`</textarea><img src=x onerror=alert(1)>`,
		`"quoted" & 'single'`,
	}
	for i := 0; i < 10; i++ {
		word := gofakeit.Word()
		prompts = append(prompts, "<b>"+word+"</b> <i>"+gofakeit.Name()+"</i>")
	}

	for _, prompt := range prompts {
		rec := post(t, h, url.Values{"prompt": {prompt}})
		body := rec.Body.String()

		assert.NotContains(t, body, prompt)
		assert.Contains(t, body, textareaOpen+escaped(t, prompt)+`</textarea>`)
		assert.Contains(t, body, responseBlock+escaped(t, prompt)+`</div>`)
	}

	body := post(t, h, url.Values{"prompt": {`<script>`}}).Body.String()
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "<script>")
}

func TestIndex_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(t, &echoProvider{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, HEAD, POST", rec.Header().Get("Allow"))
}

func TestIndex_UnknownPath(t *testing.T) {
	rec := get(t, newHandler(t, &echoProvider{}), "/favicon.ico")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndex_OversizedForm(t *testing.T) {
	provider := &echoProvider{text: "unused"}
	rec := post(t, newHandler(t, provider), url.Values{"prompt": {strings.Repeat("a", 2<<20)}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, provider.calls.Load())
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		provider *echoProvider
		want     string
	}{
		{"configured", &echoProvider{}, "echo:test"},
		{"unconfigured", nil, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newHandler(t, tt.provider), "/healthz")

			require.Equal(t, http.StatusOK, rec.Code)
			var got map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, map[string]string{"status": "ok", "provider": tt.want}, got)
		})
	}
}

func TestRequestID(t *testing.T) {
	h := newHandler(t, &echoProvider{})

	rec := get(t, h, "/")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(gateway.New(&echoProvider{text: "pong"}, logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.PostForm("http://"+ln.Addr().String()+"/", url.Values{"prompt": {"ping"}})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), responseBlock+"pong</div>")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStartServer_BadAddress(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(gateway.New(nil, logger), logger)

	err := srv.StartServer(context.Background(), "127.0.0.1:not-a-port")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
