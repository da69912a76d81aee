package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/siteaudit/pkg/core"
)

func TestExtract(t *testing.T) {
	doc := []byte(`<html><head><title>DC</title></head><body>
<nav class="main-navigation"><a href="/">Home</a></nav>
<a href="tel:202-335-4240">Call</a></body></html>`)

	facts := Extract(doc, OptionsFrom(core.DefaultExpectations()))

	require.Len(t, facts.Phones, 1)
	assert.Equal(t, "2023354240", facts.Phones[0].Digits)
	assert.Equal(t, 1, facts.Marker("title").Count)
	assert.Equal(t, 0, facts.Marker("authority_reversal").Count)
	assert.Equal(t, 0, facts.Marker("no-such-kind").Count)
	assert.Equal(t, 1, facts.CanonicalNavCount())
}

func TestLinks(t *testing.T) {
	doc := `<a href="/a/">A</a><a name="x">no href</a><link href="style.css"><a href=" tel:3012153191 ">T</a>`
	assert.Equal(t, []string{"/a/", "tel:3012153191"}, Links([]byte(doc)))
}

func TestHasBody(t *testing.T) {
	off, ok := HasBody([]byte(`<html><body class="x">hi</body></html>`))
	require.True(t, ok)
	assert.Equal(t, len(`<html><body class="x">`), off)

	_, ok = HasBody([]byte(`<div>fragment</div>`))
	assert.False(t, ok)
}
