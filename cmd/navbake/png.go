package main

import (
	"image"
	"image/color"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/Faultbox/midgard-nav/internal/nav"
	"github.com/Faultbox/midgard-nav/internal/pathfind"
	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

var (
	colorOpen    = color.RGBA{200, 200, 200, 255}
	colorOpenAlt = color.RGBA{180, 180, 180, 255} // Every other tile
	colorBlocked = color.RGBA{40, 40, 40, 255}
	colorPath    = color.RGBA{220, 40, 40, 255}
)

// writePassability saves the grid as a PNG with scale x scale pixels per
// node.
func writePassability(v *nav.View, results []pathfind.Result, path string, scale int) error {
	img := upscale(renderPassability(v, results), scale)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// renderPassability draws one pixel per node, tiles in a checkerboard, with
// successful paths on top. Grid +Y points up the image.
func renderPassability(v *nav.View, results []pathfind.Result) *image.RGBA {
	dim := v.Dimension()
	img := image.NewRGBA(image.Rect(0, 0, dim, dim))
	nodes := v.Nodes()

	for _, t := range v.Tiles() {
		open := colorOpen
		if (t.X+t.Y)%2 == 1 {
			open = colorOpenAlt
		}
		for _, id := range t.Nodes {
			n := nodes[id]
			c := colorBlocked
			if n.Passable {
				c = open
			}
			setCell(img, n.Local, c)
		}
	}

	for _, r := range results {
		if !r.Success {
			continue
		}
		for i := 1; i < len(r.Points); i++ {
			drawLine(img, v.WorldToGrid(r.Points[i-1]), v.WorldToGrid(r.Points[i]))
		}
		if len(r.Points) == 1 {
			setCell(img, v.WorldToGrid(r.Points[0]), colorPath)
		}
	}
	return img
}

func upscale(src *image.RGBA, scale int) image.Image {
	if scale <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

func setCell(img *image.RGBA, c gmath.Vec2i, col color.RGBA) {
	img.SetRGBA(c.X, img.Rect.Dy()-1-c.Y, col)
}

// drawLine marks the cells between a and b with Bresenham's algorithm.
func drawLine(img *image.RGBA, a, b gmath.Vec2i) {
	d := b.Sub(a).Abs()
	sx, sy := 1, 1
	if b.X < a.X {
		sx = -1
	}
	if b.Y < a.Y {
		sy = -1
	}
	err := d.X - d.Y
	for {
		setCell(img, a, colorPath)
		if a == b {
			return
		}
		e2 := 2 * err
		if e2 > -d.Y {
			err -= d.Y
			a.X += sx
		}
		if e2 < d.X {
			err += d.X
			a.Y += sy
		}
	}
}
