package corpus

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"math/rand"

	_ "image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// augmentVariants synthesizes n perturbed copies of a photo by cycling
// through mild geometric and photometric transforms. The perturbations are
// small on purpose: the variants must still embed close to the original.
func augmentVariants(src image.Image, n int, rng *rand.Rand) []image.Image {
	transforms := []func(image.Image, *rand.Rand) image.Image{
		flipHorizontal,
		rotateSlight,
		jitterBrightness,
		cropZoom,
	}

	out := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, transforms[i%len(transforms)](src, rng))
	}
	return out
}

func flipHorizontal(src image.Image, _ *rand.Rand) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, src.At(b.Max.X-1-x, b.Min.Y+y))
		}
	}
	return dst
}

// rotateSlight rotates around the image center by up to ±10 degrees.
func rotateSlight(src image.Image, rng *rand.Rand) image.Image {
	theta := (rng.Float64()*2 - 1) * 10 * math.Pi / 180
	sin, cos := math.Sincos(theta)

	b := src.Bounds()
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, src, b, draw.Src, nil)

	s2d := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}
	draw.BiLinear.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}

// jitterBrightness scales channel intensities by a factor in [0.8, 1.2].
func jitterBrightness(src image.Image, rng *rand.Rand) image.Image {
	factor := 0.8 + rng.Float64()*0.4

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := src.At(x, y).RGBA()
			dst.Set(x-b.Min.X, y-b.Min.Y, color.RGBA64{
				R: scaleClamped(r, factor),
				G: scaleClamped(g, factor),
				B: scaleClamped(bl, factor),
				A: uint16(a),
			})
		}
	}
	return dst
}

func scaleClamped(v uint32, factor float64) uint16 {
	s := float64(v) * factor
	if s > math.MaxUint16 {
		s = math.MaxUint16
	}
	return uint16(s)
}

// cropZoom crops a random 90% window and scales it back to full size.
func cropZoom(src image.Image, rng *rand.Rand) image.Image {
	b := src.Bounds()
	mx := b.Dx() / 10
	my := b.Dy() / 10
	ox := rng.Intn(mx + 1)
	oy := rng.Intn(my + 1)

	window := image.Rect(b.Min.X+ox, b.Min.Y+oy, b.Max.X-(mx-ox), b.Max.Y-(my-oy))
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, window, draw.Src, nil)
	return dst
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
