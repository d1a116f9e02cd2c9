package cloud

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"os"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/liao/chat-cloud/internal/corpus"
)

// Renderer 把词频画成词云图片
type Renderer struct {
	font       *truetype.Font
	faces      map[float64]font.Face
	opts       Options
	background color.Color
	seed       uint64
}

// LoadFont 读取 TrueType 字体文件（不支持 .ttc）
func LoadFont(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return data, nil
}

func NewRenderer(fontData []byte, opts Options, background color.Color, seed uint64) (*Renderer, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Renderer{
		font:       f,
		faces:      make(map[float64]font.Face),
		opts:       opts,
		background: background,
		seed:       seed,
	}, nil
}

func (r *Renderer) face(size float64) font.Face {
	if f, ok := r.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(r.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	r.faces[size] = f
	return f
}

// Measure 实现 MeasureFunc
func (r *Renderer) Measure(word string, size float64) (float64, float64) {
	f := r.face(size)
	m := f.Metrics()
	w := float64(font.MeasureString(f, word)) / 64
	h := float64(m.Ascent+m.Descent) / 64
	return w, h
}

// Draw 排版并绘制，返回图片和实际放下的词
func (r *Renderer) Draw(words []corpus.WordCount, mask *Mask) (image.Image, []Placement) {
	placements := Layout(words, r.opts, r.Measure, mask)

	dc := gg.NewContext(r.opts.Width, r.opts.Height)
	dc.SetColor(r.background)
	dc.Clear()

	rng := rand.New(rand.NewPCG(r.seed, r.seed))
	for _, p := range placements {
		f := r.face(p.FontSize)
		dc.SetFontFace(f)
		dc.SetColor(greyTone(rng))
		ascent := float64(f.Metrics().Ascent) / 64
		dc.DrawString(p.Word, p.X, p.Y+ascent)
	}
	return dc.Image(), placements
}

// Render 绘制并按扩展名保存图片
func (r *Renderer) Render(words []corpus.WordCount, mask *Mask, path string) ([]Placement, error) {
	img, placements := r.Draw(words, mask)
	if err := imaging.Save(img, path); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}
	return placements, nil
}

// greyTone 亮度 60%~100% 的灰色
func greyTone(rng *rand.Rand) color.Color {
	lightness := 60 + rng.IntN(41)
	return color.Gray{Y: uint8(255 * lightness / 100)}
}
