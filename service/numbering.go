package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxNumberAttempts bounds retries when a generated number collides
const maxNumberAttempts = 5

// NumberGenerator produces contract numbers of the form PREFIX-<unix millis>-<suffix>
type NumberGenerator struct {
	prefix string
	suffix func() string
}

func NewNumberGenerator(prefix string) *NumberGenerator {
	if prefix == "" {
		prefix = "CNT"
	}
	return &NumberGenerator{prefix: prefix, suffix: randomSuffix}
}

func (g *NumberGenerator) Next(now time.Time) string {
	return fmt.Sprintf("%s-%d-%s", g.prefix, now.UnixMilli(), g.suffix())
}

func randomSuffix() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:8])
}
