package resilience

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"

	"github.com/ann82/dv-assistant-sub003/internal/provider"
)

// LLM runs every call of the wrapped model through an Executor.
type LLM struct {
	next provider.LLM
	exec *Executor
}

// WrapLLM guards next with exec.
func WrapLLM(next provider.LLM, exec *Executor) *LLM {
	return &LLM{next: next, exec: exec}
}

func (l *LLM) Generate(ctx context.Context, messages []*schema.Message, opts provider.GenerateOptions) (string, error) {
	var out string
	err := l.exec.Do(ctx, "generate", func(ctx context.Context) error {
		text, err := l.next.Generate(ctx, messages, opts)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	return out, err
}

// Classify does not retry label validation failures; the model answered, just badly.
func (l *LLM) Classify(ctx context.Context, prompt string, labels []string) (string, error) {
	var out string
	err := l.exec.Do(ctx, "classify", func(ctx context.Context) error {
		label, err := l.next.Classify(ctx, prompt, labels)
		if errors.Is(err, provider.ErrInvalidLabel) {
			return Permanent(err)
		}
		if err != nil {
			return err
		}
		out = label
		return nil
	})
	return out, err
}

// Searcher runs every search through an Executor.
type Searcher struct {
	next provider.Searcher
	exec *Executor
}

// WrapSearcher guards next with exec.
func WrapSearcher(next provider.Searcher, exec *Executor) *Searcher {
	return &Searcher{next: next, exec: exec}
}

func (s *Searcher) Search(ctx context.Context, query string) (*provider.SearchResponse, error) {
	var out *provider.SearchResponse
	err := s.exec.Do(ctx, "search", func(ctx context.Context) error {
		resp, err := s.next.Search(ctx, query)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	return out, err
}
