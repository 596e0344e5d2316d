package meeting

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/meetinsight/meeting-insight/internal/model"
)

const (
	summarySentences = 3
	unknownDate      = "未知日期"
	unknownTime      = "未知时间"
	stampLen         = len("20060102_150405")
)

// SplitSentences breaks text on Chinese and Latin sentence terminators,
// trimming whitespace and dropping empty fragments.
func SplitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '。', '！', '？', '!', '?':
			return true
		}
		return false
	})

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// ExtractMetadata derives the meeting topic, date and time from a filename
// of the form "<topic>_YYYYMMDD_HHMMSS.<ext>".
func ExtractMetadata(filename string) model.Metadata {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	meta := model.Metadata{
		Filename: filename,
		Date:     unknownDate,
		Time:     unknownTime,
		Topic:    strings.TrimSpace(base),
	}

	stamp, ok := trailingStamp(base)
	if !ok {
		return meta
	}

	meta.Topic = strings.TrimSpace(strings.TrimSuffix(base, "_"+stamp))
	d, errDate := time.Parse("20060102", stamp[:8])
	t, errTime := time.Parse("150405", stamp[9:])
	if errDate == nil && errTime == nil {
		meta.Date = d.Format(time.DateOnly)
		meta.Time = t.Format(time.TimeOnly)
	}
	return meta
}

// trailingStamp returns the "YYYYMMDD_HHMMSS" suffix of base when it is
// preceded by an underscore.
func trailingStamp(base string) (string, bool) {
	if len(base) < stampLen+1 {
		return "", false
	}
	stamp := base[len(base)-stampLen:]
	if base[len(base)-stampLen-1] != '_' {
		return "", false
	}
	for i, r := range stamp {
		if i == 8 {
			if r != '_' {
				return "", false
			}
			continue
		}
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return stamp, true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func countHits(sentences []string, keywords []string) int {
	var n int
	for _, s := range sentences {
		for _, kw := range keywords {
			n += strings.Count(s, kw)
		}
	}
	return n
}
