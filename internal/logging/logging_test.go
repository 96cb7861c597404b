package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUncolor_StripsAnsiCodes(t *testing.T) {
	colored := "\x1b[32mINFO\x1b[0m engine: bundle submitted"
	assert.Equal(t, "INFO engine: bundle submitted", Uncolor(colored))
}

func TestUncolor_PlainTextUnchanged(t *testing.T) {
	assert.Equal(t, "plain text", Uncolor("plain text"))
}
