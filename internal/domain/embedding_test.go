package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    []string
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) (EmbeddingResult, error) {
	s.got = texts
	return s.result, s.err
}

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Dense: [][]float32{{0.1}, {0.2}}}}
	emb := NewInstructionEmbedder(inner, "query: ")

	result, err := emb.Embed(context.Background(), []string{"床前明月光", "举头望明月"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got[0] != "query: 床前明月光" || inner.got[1] != "query: 举头望明月" {
		t.Errorf("expected prepended texts, got %q", inner.got)
	}
	if len(result.Dense) != 2 {
		t.Errorf("expected 2 vectors, got %d", len(result.Dense))
	}
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := NewInstructionEmbedder(&stubEmbedder{err: innerErr}, "query: ")

	_, err := emb.Embed(context.Background(), []string{"hello"})
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestValidateTexts(t *testing.T) {
	tests := []struct {
		name    string
		texts   []string
		wantErr bool
	}{
		{"valid", []string{"床前明月光"}, false},
		{"empty batch", nil, true},
		{"empty text", []string{"ok", ""}, true},
		{"blank text", []string{"  \t\n"}, true},
		{"invalid utf8", []string{string([]byte{0xff, 0xfe})}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTexts(tt.texts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTexts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmbedding) {
				t.Errorf("expected ErrEmbedding, got %v", err)
			}
		})
	}
}

func TestCheckResult(t *testing.T) {
	res := EmbeddingResult{Dense: [][]float32{{1, 2}, {3, 4}}}
	if err := CheckResult(res, 2, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckResult(res, 3, 2); !errors.Is(err, ErrEmbedding) {
		t.Errorf("count mismatch: expected ErrEmbedding, got %v", err)
	}
	if err := CheckResult(res, 2, 3); !errors.Is(err, ErrEmbedding) {
		t.Errorf("dim mismatch: expected ErrEmbedding, got %v", err)
	}
	if err := CheckResult(res, 2, 0); err != nil {
		t.Errorf("dim 0 should skip width check, got %v", err)
	}
}

func TestErrLoadVerify_IsStoreAdmin(t *testing.T) {
	if !errors.Is(ErrLoadVerify, ErrStoreAdmin) {
		t.Error("ErrLoadVerify must match ErrStoreAdmin")
	}
	if errors.Is(ErrStoreAdmin, ErrLoadVerify) {
		t.Error("ErrStoreAdmin must not match ErrLoadVerify")
	}
}

func TestDelegateStatusError(t *testing.T) {
	err := error(&DelegateStatusError{StatusCode: 503, Body: "down"})
	if !errors.Is(err, ErrExternalDelegate) {
		t.Error("expected ErrExternalDelegate")
	}
	if err.Error() != "external delegate error: status 503: down" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
