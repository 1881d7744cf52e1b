package infer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/report-renamer/internal/cover"
	"github.com/pdiddy/report-renamer/pkg/types"
)

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

// failNTimesBackend fails the first N calls, then succeeds.
type failNTimesBackend struct {
	failures  int
	callCount int
	reply     string
}

func (f *failNTimesBackend) Infer(_ context.Context, _ cover.Cover) (string, error) {
	f.callCount++
	if f.callCount <= f.failures {
		return "", fmt.Errorf("transient error (call %d)", f.callCount)
	}
	return f.reply, nil
}

func testInferenceConfig(maxRetries int) types.InferenceConfig {
	return types.InferenceConfig{
		AIConfig: types.AIConfig{Model: "test-model", APIKey: "test", MaxRetries: maxRetries},
	}
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    types.InferredFields
		wantErr string
	}{
		{
			name: "complete reply",
			raw:  `{"industry": "AI", "region": "WW", "title": "生成式AI未來展望", "institution": "MS", "date": "250916"}`,
			want: types.InferredFields{
				Industry: "AI", Region: "WW", Title: "生成式AI未來展望", Institution: "MS", Date: "250916",
			},
		},
		{
			name: "missing region defaults to WW",
			raw:  `{"industry": "Semi", "title": "記憶體產業分析", "institution": "GS", "date": "240101"}`,
			want: types.InferredFields{
				Industry: "Semi", Region: "WW", Title: "記憶體產業分析", Institution: "GS", Date: "240101",
			},
		},
		{
			name: "json fence is stripped",
			raw:  "```json\n{\"industry\": \"EV\", \"region\": \"CN\", \"title\": \"電動車市場\", \"institution\": \"CICC\", \"date\": \"231105\"}\n```",
			want: types.InferredFields{
				Industry: "EV", Region: "CN", Title: "電動車市場", Institution: "CICC", Date: "231105",
			},
		},
		{
			name: "bare fence is stripped",
			raw:  "```\n{\"industry\": \"AI\", \"title\": \"展望\", \"institution\": \"MS\", \"date\": \"250916\"}\n```",
			want: types.InferredFields{
				Industry: "AI", Region: "WW", Title: "展望", Institution: "MS", Date: "250916",
			},
		},
		{
			name:    "missing required field fails whole",
			raw:     `{"industry": "AI", "region": "WW", "institution": "MS", "date": "250916"}`,
			wantErr: "validating AI response",
		},
		{
			name:    "empty required field fails",
			raw:     `{"industry": "", "title": "t", "institution": "MS", "date": "250916"}`,
			wantErr: "validating AI response",
		},
		{
			name:    "malformed date fails",
			raw:     `{"industry": "AI", "title": "t", "institution": "MS", "date": "2025-09-16"}`,
			wantErr: "validating AI response",
		},
		{
			name:    "unexpected region fails",
			raw:     `{"industry": "AI", "region": "US", "title": "t", "institution": "MS", "date": "250916"}`,
			wantErr: "validating AI response",
		},
		{
			name:    "extra keys fail",
			raw:     `{"industry": "AI", "title": "t", "institution": "MS", "date": "250916", "confidence": 0.9}`,
			wantErr: "validating AI response",
		},
		{
			name:    "non-JSON reply fails",
			raw:     "Sure! Here is the metadata you asked for.",
			wantErr: "validating AI response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFields(tt.raw)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("ParseFields() = %+v, expected error containing %q", got, tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFields() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFields() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfer_SingleRetry(t *testing.T) {
	reply := `{"industry": "AI", "title": "展望", "institution": "MS", "date": "250916"}`

	t.Run("one failure then success", func(t *testing.T) {
		backend := &failNTimesBackend{failures: 1, reply: reply}
		fields, err := Infer(context.Background(), backend, cover.Cover{Text: "t"}, testInferenceConfig(1))
		if err != nil {
			t.Fatalf("Infer() error: %v", err)
		}
		if backend.callCount != 2 {
			t.Errorf("callCount = %d, want 2", backend.callCount)
		}
		if fields.Industry != "AI" {
			t.Errorf("fields = %+v", fields)
		}
	})

	t.Run("two failures exhaust the budget", func(t *testing.T) {
		backend := &failNTimesBackend{failures: 2, reply: reply}
		_, err := Infer(context.Background(), backend, cover.Cover{Text: "t"}, testInferenceConfig(1))
		if err == nil {
			t.Fatal("Infer() expected error")
		}
		if backend.callCount != 2 {
			t.Errorf("callCount = %d, want 2", backend.callCount)
		}
	})

	t.Run("zero config defaults to one retry", func(t *testing.T) {
		backend := &failNTimesBackend{failures: 1, reply: reply}
		if _, err := Infer(context.Background(), backend, cover.Cover{Text: "t"}, testInferenceConfig(0)); err != nil {
			t.Fatalf("Infer() error: %v", err)
		}
		if backend.callCount != 2 {
			t.Errorf("callCount = %d, want 2", backend.callCount)
		}
	})
}

func TestInfer_ContextCancelledDuringBackoff(t *testing.T) {
	backend := &failNTimesBackend{failures: 10, reply: "{}"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Infer(ctx, backend, cover.Cover{Text: "t"}, testInferenceConfig(3))
	if err == nil {
		t.Fatal("Infer() expected error")
	}
}

func TestNewBackend(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		cfg := types.InferenceConfig{AIConfig: types.AIConfig{Provider: types.ProviderGemini}}
		if _, err := NewBackend(cfg); err == nil {
			t.Fatal("NewBackend() expected error for missing key")
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := types.InferenceConfig{AIConfig: types.AIConfig{Provider: "bedrock", APIKey: "k"}}
		if _, err := NewBackend(cfg); err == nil {
			t.Fatal("NewBackend() expected error for unknown provider")
		}
	})

	t.Run("defaults to gemini", func(t *testing.T) {
		cfg := types.InferenceConfig{AIConfig: types.AIConfig{APIKey: "k"}}
		backend, err := NewBackend(cfg)
		if err != nil {
			t.Fatalf("NewBackend() error: %v", err)
		}
		if _, ok := backend.(*GeminiBackend); !ok {
			t.Errorf("NewBackend() = %T, want *GeminiBackend", backend)
		}
	})

	t.Run("selects openai", func(t *testing.T) {
		cfg := types.InferenceConfig{AIConfig: types.AIConfig{Provider: types.ProviderOpenAI, APIKey: "k"}}
		backend, err := NewBackend(cfg)
		if err != nil {
			t.Fatalf("NewBackend() error: %v", err)
		}
		if _, ok := backend.(*OpenAIBackend); !ok {
			t.Errorf("NewBackend() = %T, want *OpenAIBackend", backend)
		}
	})
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
