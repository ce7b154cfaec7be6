package halsning

import (
	"io"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/halsning/halsning-go/pkg/core"
)

// TextStream is a lazy, single-pass stream of reply fragments. Fragments
// arrive in order and cannot be replayed; Next returns io.EOF when the reply
// is complete. Not safe for concurrent use.
type TextStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
	done bool
	err  error
}

func newTextStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *TextStream {
	next, stop := iter.Pull2(seq)
	return &TextStream{next: next, stop: stop}
}

// Next returns the next non-empty text fragment. After the first error or
// io.EOF the stream is exhausted and keeps returning the same result.
func (s *TextStream) Next() (string, error) {
	if s.done {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	for {
		resp, err, ok := s.next()
		if !ok {
			s.finish(nil)
			return "", io.EOF
		}
		if err != nil {
			s.finish(core.NewProviderError("gemini", err))
			return "", s.err
		}
		if text := resp.Text(); text != "" {
			return text, nil
		}
	}
}

// Collect drains the stream and returns the concatenated reply.
func (s *TextStream) Collect() (string, error) {
	var b strings.Builder
	for {
		fragment, err := s.Next()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(fragment)
	}
}

// Close releases the underlying stream. Safe to call more than once.
func (s *TextStream) Close() {
	s.finish(s.err)
}

func (s *TextStream) finish(err error) {
	if s.done {
		return
	}
	s.done = true
	s.err = err
	s.stop()
}
