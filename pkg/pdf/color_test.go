package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColorLong(t *testing.T) {
	c, err := ParseHexColor("#1a2b3c")
	require.NoError(t, err)

	r, g, b := c.Scaled()
	assert.Equal(t, 0x1a, r)
	assert.Equal(t, 0x2b, g)
	assert.Equal(t, 0x3c, b)
}

func TestParseHexColorShort(t *testing.T) {
	c, err := ParseHexColor("#f0a")
	require.NoError(t, err)

	r, g, b := c.Scaled()
	assert.Equal(t, 0xff, r)
	assert.Equal(t, 0x00, g)
	assert.Equal(t, 0xaa, b)
}

func TestParseHexColorBlackAndWhite(t *testing.T) {
	black, err := ParseHexColor("#000000")
	require.NoError(t, err)
	r, g, b := black.Scaled()
	assert.Equal(t, [3]int{0, 0, 0}, [3]int{r, g, b})

	white, err := ParseHexColor("#ffffff")
	require.NoError(t, err)
	r, g, b = white.Scaled()
	assert.Equal(t, [3]int{255, 255, 255}, [3]int{r, g, b})
}

func TestParseHexColorInvalid(t *testing.T) {
	for _, s := range []string{"", "red", "#12345", "#gggggg"} {
		_, err := ParseHexColor(s)
		assert.Error(t, err, s)
	}
}

func TestFontStyle(t *testing.T) {
	assert.Equal(t, "", FontStyle(false, false))
	assert.Equal(t, "B", FontStyle(true, false))
	assert.Equal(t, "I", FontStyle(false, true))
	assert.Equal(t, "BI", FontStyle(true, true))
}

func TestCoreFontFamily(t *testing.T) {
	assert.Equal(t, "Times", CoreFontFamily("Times New Roman"))
	assert.Equal(t, "Courier", CoreFontFamily("courier"))
	assert.Equal(t, "Helvetica", CoreFontFamily("Arial"))
	assert.Equal(t, "Helvetica", CoreFontFamily(""))
}

func TestTextWidthScalesWithSizeAndLength(t *testing.T) {
	m := LoadFontMetrics()

	short := m.TextWidth("Jane", "Helvetica", "", 12)
	long := m.TextWidth("Jane Q. Public-Extraordinaire", "Helvetica", "", 12)
	assert.Greater(t, long, short)

	big := m.TextWidth("Jane", "Helvetica", "", 24)
	assert.Greater(t, big, short)
	assert.InDelta(t, short*2, big, 0.5)
}
