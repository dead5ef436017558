package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCaptionsXML_Classic(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.5" dur="2.1">Hello &amp;amp; welcome</text>
<text start="3.25" dur="1">  </text>
<text start="5" dur="4.75">Python
rocks</text>
</transcript>`)

	entries, err := parseCaptionsXML(data)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Hello & welcome", entries[0].Text)
	assert.InDelta(t, 0.5, entries[0].Start, 1e-9)
	assert.InDelta(t, 2.1, entries[0].Duration, 1e-9)
	assert.Equal(t, "Python rocks", entries[1].Text)
	assert.InDelta(t, 5.0, entries[1].Start, 1e-9)
}

func TestParseCaptionsXML_SRV3(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="utf-8" ?><timedtext format="3"><body>
<p t="1200" d="3400">こんにちは</p>
<p t="61500" d="2000"><s>machine</s><s> learning</s></p>
</body></timedtext>`)

	entries, err := parseCaptionsXML(data)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "こんにちは", entries[0].Text)
	assert.InDelta(t, 1.2, entries[0].Start, 1e-9)
	assert.InDelta(t, 3.4, entries[0].Duration, 1e-9)
	assert.Equal(t, "machine learning", entries[1].Text)
	assert.InDelta(t, 61.5, entries[1].Start, 1e-9)
}

func TestParseCaptionsXML_Empty(t *testing.T) {
	_, err := parseCaptionsXML([]byte(`<transcript></transcript>`))
	assert.Error(t, err)

	_, err = parseCaptionsXML([]byte(`not xml`))
	assert.Error(t, err)
}

func TestParseSeconds(t *testing.T) {
	assert.Equal(t, 0.0, parseSeconds(""))
	assert.Equal(t, 0.0, parseSeconds("-3"))
	assert.Equal(t, 12.5, parseSeconds(" 12.5 "))
	assert.Equal(t, 1.5, parseMillis("1500"))
}
