package cssvalue_test

import (
	"fmt"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/domsvg/internal/cssvalue"
)

func TestParseLinearGradient(t *testing.T) {
	t.Run("angle with computed rgb stops", func(t *testing.T) {
		g, err := cssvalue.ParseLinearGradient("linear-gradient(90deg, rgb(255, 0, 0), rgba(0, 0, 255, 0.5))")
		require.NoError(t, err)
		assert.Equal(t, cssvalue.OrientationAngular, g.Orientation.Kind)
		assert.Equal(t, 90.0, g.Orientation.Angle)
		require.Len(t, g.Stops, 2)
		assert.Equal(t, cssvalue.StopRGB, g.Stops[0].Kind)
		assert.Equal(t, []float64{255, 0, 0}, g.Stops[0].RGBA)
		assert.Equal(t, cssvalue.StopRGBA, g.Stops[1].Kind)
		assert.Equal(t, []float64{0, 0, 255, 0.5}, g.Stops[1].RGBA)
	})

	t.Run("direction keywords", func(t *testing.T) {
		g, err := cssvalue.ParseLinearGradient("linear-gradient(to left top, red, #00ff00)")
		require.NoError(t, err)
		assert.Equal(t, cssvalue.OrientationDirectional, g.Orientation.Kind)
		assert.Equal(t, []string{"left", "top"}, g.Orientation.Sides)
		assert.Equal(t, cssvalue.StopLiteral, g.Stops[0].Kind)
		assert.Equal(t, "red", g.Stops[0].Value)
		assert.Equal(t, cssvalue.StopHex, g.Stops[1].Kind)
		assert.Equal(t, "00ff00", g.Stops[1].Value)
	})

	t.Run("legacy prefixed start side", func(t *testing.T) {
		g, err := cssvalue.ParseLinearGradient("-webkit-linear-gradient(left, red, blue)")
		require.NoError(t, err)
		assert.Equal(t, []string{"right"}, g.Orientation.Sides)
	})

	t.Run("no orientation", func(t *testing.T) {
		g, err := cssvalue.ParseLinearGradient("linear-gradient(red, blue)")
		require.NoError(t, err)
		assert.Equal(t, cssvalue.OrientationDefault, g.Orientation.Kind)
		assert.Len(t, g.Stops, 2)
	})

	t.Run("angle units", func(t *testing.T) {
		g, err := cssvalue.ParseLinearGradient("linear-gradient(0.5turn, red, blue)")
		require.NoError(t, err)
		assert.Equal(t, 180.0, g.Orientation.Angle)
	})

	t.Run("explicit stop positions", func(t *testing.T) {
		g, err := cssvalue.ParseLinearGradient("linear-gradient(red 10%, blue 80%)")
		require.NoError(t, err)
		require.NotNil(t, g.Stops[0].Position)
		assert.Equal(t, 10.0, *g.Stops[0].Position)
		assert.Equal(t, 80.0, *g.Stops[1].Position)
	})

	errorCases := []string{
		"radial-gradient(red, blue)",
		"linear-gradient()",
		"linear-gradient(45deg)",
		"linear-gradient(to nowhere, red)",
		"linear-gradient(10foo, red)",
		"linear-gradient(hsl(0, 1%, 2%), red)",
	}
	for _, in := range errorCases {
		t.Run("error "+in, func(t *testing.T) {
			_, err := cssvalue.ParseLinearGradient(in)
			assert.ErrorIs(t, err, cssvalue.ErrParse)
		})
	}
}

func FuzzParseLinearGradient(f *testing.F) {
	f.Add([]byte("linear-gradient(45deg, red, blue)"))
	f.Add([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		orientation, err := consumer.GetString()
		if err != nil {
			return
		}
		stop, err := consumer.GetString()
		if err != nil {
			return
		}
		value := fmt.Sprintf("linear-gradient(%s, %s)", orientation, stop)
		g, err := cssvalue.ParseLinearGradient(value)
		if err == nil {
			assert.NotEmpty(t, g.Stops)
		}
		_ = cssvalue.RewriteURLReferences(value, "x-")
		_, _ = cssvalue.FirstString(orientation)
	})
}
