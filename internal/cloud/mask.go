package cloud

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/disintegration/imaging"
)

// Mask 标记画布上哪些像素可以放词。内部用积分图做矩形查询。
type Mask struct {
	width, height int
	blocked       []int // (width+1)*(height+1) 的前缀和
}

// NewMask 根据 drawable 判断每个像素是否可用
func NewMask(img image.Image, drawable func(c color.Color) bool) *Mask {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	m := &Mask{width: w, height: h, blocked: make([]int, (w+1)*(h+1))}

	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			if !drawable(img.At(b.Min.X+x, b.Min.Y+y)) {
				row++
			}
			m.blocked[(y+1)*(w+1)+x+1] = m.blocked[y*(w+1)+x+1] + row
		}
	}
	return m
}

// AllowsRect 矩形 [x0,x1)×[y0,y1) 内没有被遮挡的像素。nil 表示不限制。
func (m *Mask) AllowsRect(x0, y0, x1, y1 int) bool {
	if m == nil {
		return true
	}
	if x0 < 0 || y0 < 0 || x1 > m.width || y1 > m.height || x0 >= x1 || y0 >= y1 {
		return false
	}
	w := m.width + 1
	n := m.blocked[y1*w+x1] - m.blocked[y0*w+x1] - m.blocked[y1*w+x0] + m.blocked[y0*w+x0]
	return n == 0
}

// LoadMask 读取遮罩图并缩放到画布尺寸。
// cropSize 不超过图片尺寸时居中裁剪并反色：原图非黑的像素可以放词；
// 否则直接使用原图，白色像素不放词。
func LoadMask(path string, cropSize, width, height int) (*Mask, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mask: %w", err)
	}

	b := img.Bounds()
	if cropSize <= 0 || cropSize > b.Dx() || cropSize > b.Dy() {
		slog.Warn("crop size must be smaller than image size, using original image",
			"crop_size", cropSize, "width", b.Dx(), "height", b.Dy())
		resized := imaging.Resize(img, width, height, imaging.NearestNeighbor)
		return NewMask(resized, notWhite), nil
	}

	cropped := imaging.CropCenter(img, cropSize, cropSize)
	resized := imaging.Resize(cropped, width, height, imaging.NearestNeighbor)
	return NewMask(resized, notBlack), nil
}

func notWhite(c color.Color) bool {
	g := color.GrayModel.Convert(c).(color.Gray)
	return g.Y != 0xff
}

func notBlack(c color.Color) bool {
	g := color.GrayModel.Convert(c).(color.Gray)
	return g.Y != 0
}
