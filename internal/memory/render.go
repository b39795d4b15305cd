package memory

import (
	"fmt"
	"strings"
	"time"

	"memoria/internal/domain"
)

func parseCreatedAt(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func renderMemorySection(title string, memories []domain.Memory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", title)
	for _, mem := range memories {
		fmt.Fprintf(&b, "- %s\n", mem.Content)
	}
	return b.String()
}

func renderListSection(title string, lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", title)
	for _, line := range lines {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	return b.String()
}
