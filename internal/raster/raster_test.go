// internal/raster/raster_test.go
package raster

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="20" viewBox="0 0 40 20">
  <g>
    <rect x="0" y="0" width="20" height="20" fill="#ff0000"/>
    <text x="25" y="15">ignored</text>
  </g>
</svg>`

func TestRasterize(t *testing.T) {
	t.Run("IntrinsicSize", func(t *testing.T) {
		img, err := Rasterize([]byte(square), 0)
		require.NoError(t, err)
		assert.Equal(t, 40, img.Bounds().Dx())
		assert.Equal(t, 20, img.Bounds().Dy())

		r, g, b, _ := img.At(5, 5).RGBA()
		assert.Equal(t, uint32(0xffff), r)
		assert.Equal(t, uint32(0), g)
		assert.Equal(t, uint32(0), b)

		r, g, b, _ = img.At(35, 2).RGBA()
		assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b}, "canvas is white")
	})

	t.Run("Scaled", func(t *testing.T) {
		img, err := Rasterize([]byte(square), 80)
		require.NoError(t, err)
		assert.Equal(t, 80, img.Bounds().Dx())
		assert.Equal(t, 40, img.Bounds().Dy())
	})

	t.Run("NoViewBox", func(t *testing.T) {
		_, err := Rasterize([]byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), 0)
		assert.ErrorIs(t, err, ErrNoViewBox)
	})
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, []byte(square), 20))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())
}
