package strip

import "image"

// Layout holds the strip geometry in pixels.
type Layout struct {
	PhotoWidth   int
	PhotoHeight  int
	Padding      int // outer margin around the photo stack
	Spacing      int // gap between two photos
	FooterHeight int // band below the stack for the footer text
	Photos       int
}

// DefaultLayout is three 400x415 photos, 30px padding, 20px spacing and a
// 130px footer: a 460x1475 strip.
func DefaultLayout() Layout {
	return Layout{
		PhotoWidth:   400,
		PhotoHeight:  415,
		Padding:      30,
		Spacing:      20,
		FooterHeight: 130,
		Photos:       3,
	}
}

// Size returns the canvas dimensions.
func (l Layout) Size() image.Point {
	return image.Pt(
		l.PhotoWidth+2*l.Padding,
		l.Photos*l.PhotoHeight+(l.Photos-1)*l.Spacing+2*l.Padding+l.FooterHeight,
	)
}

// Bounds returns the canvas rectangle.
func (l Layout) Bounds() image.Rectangle {
	return image.Rectangle{Max: l.Size()}
}

// PhotoOrigin is the top-left corner of photo i (0-based, top to bottom).
func (l Layout) PhotoOrigin(i int) image.Point {
	return image.Pt(l.Padding, l.Padding+i*(l.PhotoHeight+l.Spacing))
}

// PhotoRect is where photo i is drawn.
func (l Layout) PhotoRect(i int) image.Rectangle {
	o := l.PhotoOrigin(i)
	return image.Rect(o.X, o.Y, o.X+l.PhotoWidth, o.Y+l.PhotoHeight)
}

// FooterTop is the reference line footer baselines are measured from,
// 20px below the last photo.
func (l Layout) FooterTop() int {
	return l.Padding + l.Photos*l.PhotoHeight + (l.Photos-1)*l.Spacing + 20
}

// CenterX is the horizontal center of the strip.
func (l Layout) CenterX() int {
	return l.Size().X / 2
}
