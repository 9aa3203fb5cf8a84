package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/shiwake/internal/common"
	"github.com/Veraticus/shiwake/internal/model"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	err   error
	reply string
	got   anthropic.MessageNewParams
	calls int
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.calls++
	f.got = body
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{{Type: "text", Text: f.reply}},
	}, nil
}

func writeFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o600))
	return path
}

func TestAnthropicExtractor_Extract(t *testing.T) {
	fake := &fakeMessages{reply: "```json\n{\"issuer\": \"ACME Co\", \"total_amount\": 15000}\n```"}
	ext := newAnthropicExtractor(fake, Config{})

	fields, err := ext.Extract(context.Background(), writeFile(t, "invoice.PNG"))
	require.NoError(t, err)
	assert.Equal(t, "ACME Co", model.Text(fields.Issuer))
	assert.Equal(t, "15000", model.Text(fields.Amount))

	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, anthropic.Model(DefaultModel), fake.got.Model)
	assert.Equal(t, int64(DefaultMaxTokens), fake.got.MaxTokens)
	require.Len(t, fake.got.Messages, 1)
	assert.Len(t, fake.got.Messages[0].Content, 2)
}

func TestAnthropicExtractor_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported format", func(t *testing.T) {
		fake := &fakeMessages{}
		ext := newAnthropicExtractor(fake, Config{})
		_, err := ext.Extract(ctx, writeFile(t, "invoice.docx"))
		assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
		assert.Zero(t, fake.calls)
	})

	t.Run("missing file", func(t *testing.T) {
		ext := newAnthropicExtractor(&fakeMessages{}, Config{})
		_, err := ext.Extract(ctx, filepath.Join(t.TempDir(), "gone.pdf"))
		assert.Error(t, err)
	})

	t.Run("api failure", func(t *testing.T) {
		ext := newAnthropicExtractor(&fakeMessages{err: errors.New("overloaded")}, Config{Model: "claude-x", MaxTokens: 10})
		_, err := ext.Extract(ctx, writeFile(t, "a.jpg"))
		assert.ErrorIs(t, err, common.ErrOCRFailed)
	})

	t.Run("unparseable reply", func(t *testing.T) {
		ext := newAnthropicExtractor(&fakeMessages{reply: "no json here"}, Config{})
		_, err := ext.Extract(ctx, writeFile(t, "a.pdf"))
		assert.ErrorIs(t, err, common.ErrOCRFailed)
	})
}

func TestNewAnthropicExtractor_RequiresKey(t *testing.T) {
	_, err := NewAnthropicExtractor(Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	ext, err := NewAnthropicExtractor(Config{APIKey: "sk-test", Model: "claude-x"})
	require.NoError(t, err)
	assert.Equal(t, "claude-x", ext.model)
}

func TestMockExtractor(t *testing.T) {
	m := NewMockExtractor()
	m.Fields["a.pdf"] = model.OCRFields{Issuer: model.Ptr("ACME Co")}
	m.Errors["b.pdf"] = common.ErrOCRFailed

	f, err := m.Extract(context.Background(), "/tmp/in/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "ACME Co", model.Text(f.Issuer))

	_, err = m.Extract(context.Background(), "b.pdf")
	assert.ErrorIs(t, err, common.ErrOCRFailed)

	_, err = m.Extract(context.Background(), "c.pdf")
	assert.ErrorIs(t, err, common.ErrOCRFailed)

	assert.Equal(t, []string{"/tmp/in/a.pdf", "b.pdf", "c.pdf"}, m.Calls())
}

func TestMediaType(t *testing.T) {
	mt, err := MediaType("scan.JPEG")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mt)
	assert.True(t, IsSupported("x.pdf"))
	assert.False(t, IsSupported("x.txt"))
}
