package cloud

import (
	"math"

	"github.com/liao/chat-cloud/internal/corpus"
)

// Options 画布和字号设置
type Options struct {
	Width       int
	Height      int
	MinFontSize float64
	MaxFontSize float64
	Margin      int
}

// Placement 一个词在画布上的位置，(X, Y) 是左上角
type Placement struct {
	Word     string
	Count    int
	FontSize float64
	X, Y     float64
	W, H     float64
}

// MeasureFunc 返回词在指定字号下的宽高
type MeasureFunc func(word string, size float64) (w, h float64)

const (
	spiralStep  = 3.0  // 每弧度半径增长的像素
	spiralDelta = 0.15 // 每次旋转的弧度
	shrinkRatio = 0.85
)

// Layout 按词频从高到低沿阿基米德螺线放置，放不下就缩小字号重试，
// 小于最小字号仍放不下的词跳过。mask 为 nil 时整个画布可用。
func Layout(words []corpus.WordCount, opts Options, measure MeasureFunc, mask *Mask) []Placement {
	if len(words) == 0 || opts.Width <= 0 || opts.Height <= 0 {
		return nil
	}

	minSize := max(opts.MinFontSize, 1)
	maxCount := 0
	for _, w := range words {
		maxCount = max(maxCount, w.Count)
	}

	var placed []Placement
	for _, wc := range words {
		if wc.Count <= 0 {
			continue
		}
		size := fontSize(wc.Count, maxCount, opts)
		for ; size >= minSize; size *= shrinkRatio {
			w, h := measure(wc.Word, size)
			if x, y, ok := findSpot(w, h, placed, opts, mask); ok {
				placed = append(placed, Placement{
					Word: wc.Word, Count: wc.Count, FontSize: size,
					X: x, Y: y, W: w, H: h,
				})
				break
			}
		}
	}
	return placed
}

// fontSize 按相对词频的平方根在最小和最大字号之间插值
func fontSize(count, maxCount int, opts Options) float64 {
	ratio := math.Sqrt(float64(count) / float64(maxCount))
	return opts.MinFontSize + (opts.MaxFontSize-opts.MinFontSize)*ratio
}

func findSpot(w, h float64, placed []Placement, opts Options, mask *Mask) (float64, float64, bool) {
	cx, cy := float64(opts.Width)/2, float64(opts.Height)/2
	maxRadius := math.Hypot(cx, cy)

	for t := 0.0; ; t += spiralDelta {
		r := spiralStep * t
		if r > maxRadius {
			return 0, 0, false
		}
		x := cx + r*math.Cos(t) - w/2
		y := cy + r*math.Sin(t) - h/2
		if fits(x, y, w, h, placed, opts, mask) {
			return x, y, true
		}
	}
}

func fits(x, y, w, h float64, placed []Placement, opts Options, mask *Mask) bool {
	m := float64(opts.Margin)
	if x < m || y < m || x+w > float64(opts.Width)-m || y+h > float64(opts.Height)-m {
		return false
	}
	for _, p := range placed {
		if x < p.X+p.W+m && p.X < x+w+m && y < p.Y+p.H+m && p.Y < y+h+m {
			return false
		}
	}
	return mask.AllowsRect(int(math.Floor(x)), int(math.Floor(y)), int(math.Ceil(x+w)), int(math.Ceil(y+h)))
}
