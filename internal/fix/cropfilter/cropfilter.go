// Package cropfilter is the crop-rectangle math shared by CropVideoBars
// and CropImage: union/intersect over per-frame ImageMagick trim output,
// and the ffmpeg/ImageMagick dimension-string forms. Grounded on
// fixers/common/crop_filter.rs.
package cropfilter

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter is a crop rectangle in ffmpeg's crop=w:h:x:y coordinate space.
type Filter struct {
	Width, Height int
	X, Y          int
}

// String renders the ffmpeg crop filter form, e.g. "crop=640:480:10:0".
func (f Filter) String() string {
	return fmt.Sprintf("crop=%d:%d:%d:%d", f.Width, f.Height, f.X, f.Y)
}

// ToImageMagickDimensions renders ImageMagick's "-crop" geometry form,
// e.g. "640x480+10+0".
func (f Filter) ToImageMagickDimensions() string {
	return fmt.Sprintf("%dx%d+%d+%d", f.Width, f.Height, f.X, f.Y)
}

// Union merges other into f: the largest width/height of the
// two and the smallest (topmost/leftmost) offsets, matching how
// per-frame crop rectangles are merged across a whole clip.
func (f Filter) Union(other Filter) Filter {
	return Filter{
		Width:  max(f.Width, other.Width),
		Height: max(f.Height, other.Height),
		X:      min(f.X, other.X),
		Y:      min(f.Y, other.Y),
	}
}

// Intersect narrows f to the overlap with other, used to clip a union
// against the video's full frame.
func (f Filter) Intersect(other Filter) Filter {
	x1 := max(f.X, other.X)
	y1 := max(f.Y, other.Y)
	x2 := min(f.X+f.Width, other.X+other.Width)
	y2 := min(f.Y+f.Height, other.Y+other.Height)
	if x2 < x1 || y2 < y1 {
		return Filter{X: x1, Y: y1, Width: 0, Height: 0}
	}
	return Filter{Width: x2 - x1, Height: y2 - y1, X: x1, Y: y1}
}

// Covers reports whether f covers the full w x h frame (no crop needed).
func (f Filter) Covers(w, h int) bool {
	return f.X <= 0 && f.Y <= 0 && f.Width >= w && f.Height >= h
}

// ParseLine parses one "%w:%h:%X:%Y\n"-formatted ImageMagick output
// line into a Filter. Lines with w<4 or h<4, or negative offsets, are
// rejected (ok=false) per the spec's frame-discarding rule.
func ParseLine(line string) (Filter, bool) {
	parts := strings.Split(strings.TrimSpace(line), ":")
	if len(parts) != 4 {
		return Filter{}, false
	}
	nums := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Filter{}, false
		}
		nums[i] = n
	}
	w, h, x, y := nums[0], nums[1], nums[2], nums[3]
	if w < 4 || h < 4 || x < 0 || y < 0 {
		return Filter{}, false
	}
	return Filter{Width: w, Height: h, X: x, Y: y}, true
}

// UnionAll folds ParseLine results from ImageMagick's per-frame output
// into a single union rectangle. Returns ok=false if no line parsed.
func UnionAll(lines []string) (Filter, bool) {
	var union Filter
	found := false
	for _, line := range lines {
		f, ok := ParseLine(line)
		if !ok {
			continue
		}
		if !found {
			union = f
			found = true
			continue
		}
		union = union.Union(f)
	}
	return union, found
}
