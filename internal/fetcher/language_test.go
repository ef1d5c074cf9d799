package fetcher

import "testing"

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"latin default", "The quick brown fox jumps over the lazy dog", "en"},
		{"chinese script", "这是一个关于人工智能的故事", "zh"},
		{"cyrillic script", "Это тестовое предложение на русском языке", "ru"},
		{"arabic script", "هذه جملة اختبارية باللغة العربية", "ar"},
		{"empty defaults to en", "", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectLanguage(tt.text); got != tt.want {
				t.Errorf("detectLanguage(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
