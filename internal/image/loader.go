// Package image provides image loading and OpenCV Mat conversion.
package image

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	_ "golang.org/x/image/tiff"
)

// ErrDecode is the fatal input error: the file exists but is not a
// decodable image. No region, no circles, no analysis possible.
var ErrDecode = errors.New("image: undecodable input")

// Load opens and decodes an image file.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// ReadMat loads an image file directly into a BGR Mat.
func ReadMat(path string) (gocv.Mat, error) {
	img, err := Load(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	return ToMat(img), nil
}

// ToMat converts a Go image.Image to a gocv.Mat in BGR format.
func ToMat(img image.Image) gocv.Mat {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Convert from 16-bit to 8-bit and BGR order for OpenCV
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}

	return mat
}

// MatToImage converts a BGR Mat back to a Go image.
func MatToImage(mat gocv.Mat) image.Image {
	h, w := mat.Rows(), mat.Cols()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b := mat.GetUCharAt(y, x*3+0)
			g := mat.GetUCharAt(y, x*3+1)
			r := mat.GetUCharAt(y, x*3+2)
			i := out.PixOffset(x, y)
			out.Pix[i+0] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
			out.Pix[i+3] = 255
		}
	}
	return out
}

// WriteThumbnail saves a downscaled copy with the long edge capped at
// maxDim, preserving aspect ratio.
func WriteThumbnail(img image.Image, path string, maxDim int) error {
	thumb := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	if err := imaging.Save(thumb, path); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

// Downscale returns the image resized so its long edge is at most maxDim;
// the input is returned unchanged when already small enough.
func Downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxDim && bounds.Dy() <= maxDim {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}
