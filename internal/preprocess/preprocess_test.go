package preprocess

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textsift/textsift/internal/testutil"
)

func TestVariantsOrder(t *testing.T) {
	vs := Variants()
	require.NotEmpty(t, vs)
	assert.Equal(t, Original, vs[0])
}

func TestParse(t *testing.T) {
	v, err := Parse("grayscale")
	require.NoError(t, err)
	assert.Equal(t, Grayscale, v)

	_, err = Parse("solarize")
	assert.Error(t, err)
}

func TestApplyOriginalIsIdentity(t *testing.T) {
	img := testutil.TextPageImage(40, 30, 1)
	out, err := Apply(img, Original)
	require.NoError(t, err)
	assert.Equal(t, img, out)
}

func TestApplyAllVariantsPreserveBounds(t *testing.T) {
	img := testutil.TextPageImage(40, 30, 2)
	for _, v := range Variants() {
		out, err := Apply(img, v)
		require.NoError(t, err, string(v))
		assert.Equal(t, 40, out.Bounds().Dx(), string(v))
		assert.Equal(t, 30, out.Bounds().Dy(), string(v))
	}
}

func TestApplyUnknownVariant(t *testing.T) {
	_, err := Apply(testutil.TextPageImage(8, 8, 0), Variant("bogus"))
	assert.Error(t, err)
}

func TestInvertFlipsColors(t *testing.T) {
	img := testutil.TextPageImage(20, 20, 0) // all white
	out, err := Apply(img, Invert)
	require.NoError(t, err)

	r, g, b, _ := out.At(10, 10).RGBA()
	assert.Zero(t, r>>8)
	assert.Zero(t, g>>8)
	assert.Zero(t, b>>8)
}

func TestBinarizeSeparatesInkFromPaper(t *testing.T) {
	img := testutil.TextPageImage(60, 40, 2)
	out, err := Apply(img, Threshold)
	require.NoError(t, err)

	// A text-bar pixel goes black, background stays white.
	assert.Equal(t, color.NRGBAModel.Convert(color.Black), color.NRGBAModel.Convert(out.At(30, 2)))
	assert.Equal(t, color.NRGBAModel.Convert(color.White), color.NRGBAModel.Convert(out.At(30, 39)))
}

func TestOtsuDegenerateHistogram(t *testing.T) {
	var hist [256]int
	assert.Equal(t, 128, otsu(hist, 0))

	hist[200] = 100 // single-level image
	th := otsu(hist, 100)
	assert.GreaterOrEqual(t, th, 0)
	assert.LessOrEqual(t, th, 255)
}
