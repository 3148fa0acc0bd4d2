package s3infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageContentType(t *testing.T) {
	cases := map[string]string{
		"cessna.JPG":      "image/jpeg",
		"cessna.jpeg":     "image/jpeg",
		"hangar/pa28.png": "image/png",
		"a.webp":          "image/webp",
	}
	for name, want := range cases {
		got, ok := ImageContentType(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := ImageContentType("manual.pdf")
	assert.False(t, ok)
	_, ok = ImageContentType("noext")
	assert.False(t, ok)
}
