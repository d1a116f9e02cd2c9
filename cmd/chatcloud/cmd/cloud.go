package cmd

import (
	"fmt"
	"image/color"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/liao/chat-cloud/internal/cloud"
	"github.com/liao/chat-cloud/internal/corpus"
)

var cloudOpts struct {
	input        string
	stopwords    string
	mask         string
	maskCropSize int
	output       string
	dumpJSON     bool
	jsonOutput   string
	font         string
	top          int
}

var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Plot a word cloud from a chat history file",
	RunE:  runCloud,
}

func init() {
	f := cloudCmd.Flags()
	f.StringVarP(&cloudOpts.input, "input", "i", "", "chat history txt file")
	f.StringVarP(&cloudOpts.stopwords, "stopwords", "s", "", "txt file with one stop word per line (default cloud.stopwords_path)")
	f.StringVarP(&cloudOpts.mask, "mask", "m", "", "PNG or JPEG image mask (default cloud.mask_path)")
	f.IntVar(&cloudOpts.maskCropSize, "mask-crop-size", 0, "crop size for mask image (default cloud.mask_crop_size)")
	f.StringVarP(&cloudOpts.output, "output", "o", "output.png", "path for image output")
	f.BoolVar(&cloudOpts.dumpJSON, "dump-json", false, "also save the parsed chat history as json")
	f.StringVar(&cloudOpts.jsonOutput, "json-output", "dump.json", "path for json output")
	f.StringVar(&cloudOpts.font, "font", "", "TrueType font file (default cloud.font_path)")
	f.IntVar(&cloudOpts.top, "top", 0, "print the N most frequent words")
	_ = cloudCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(cloudCmd)
}

// newTokenizer 测试里替换成不加载词典的实现
var newTokenizer = func() (corpus.Tokenizer, error) {
	t, err := corpus.NewGseTokenizer()
	if err != nil {
		return nil, err
	}
	return t, nil
}

func runCloud(cmd *cobra.Command, _ []string) error {
	if cloudOpts.top < 0 {
		return fmt.Errorf("--top %d: %w", cloudOpts.top, errNegativeCount)
	}
	out := cmd.OutOrStdout()
	cc := cfg.Cloud

	msgs, err := parseChat(cloudOpts.input)
	if err != nil {
		return err
	}
	if cloudOpts.dumpJSON {
		if err := writeDump(cloudOpts.jsonOutput, msgs); err != nil {
			return err
		}
		fmt.Fprintln(out, success.Sprintf("json file saved to %s", cloudOpts.jsonOutput))
	}

	cleaner, err := corpus.NewCleaner(cc.NoisePhrases, cc.StripMarkup)
	if err != nil {
		return err
	}
	texts := corpus.Corpus(msgs, cleaner)

	var stopwords corpus.Stopwords
	if path := firstNonEmpty(cloudOpts.stopwords, cc.StopwordsPath); path != "" {
		if stopwords, err = corpus.LoadStopwords(path); err != nil {
			return err
		}
		slog.Debug("loaded stopwords", "path", path, "count", len(stopwords))
	}

	tokenizer, err := newTokenizer()
	if err != nil {
		return err
	}
	tokens := corpus.Tokenize(texts, tokenizer, stopwords)
	freq := corpus.Frequencies(tokens)
	words := corpus.Top(freq, cc.MaxWords)
	slog.Info("tokenized corpus", "messages", len(texts), "tokens", len(tokens), "distinct", len(freq))

	var mask *cloud.Mask
	if path := firstNonEmpty(cloudOpts.mask, cc.MaskPath); path != "" {
		if err := checkMaskInput(path); err != nil {
			return err
		}
		cropSize := cc.MaskCropSize
		if cmd.Flags().Changed("mask-crop-size") {
			cropSize = cloudOpts.maskCropSize
		}
		if mask, err = cloud.LoadMask(path, cropSize, cc.Width, cc.Height); err != nil {
			return err
		}
	}

	fontData := goregular.TTF
	if path := firstNonEmpty(cloudOpts.font, cc.FontPath); path != "" {
		if fontData, err = cloud.LoadFont(path); err != nil {
			return err
		}
	} else {
		slog.Warn("no font configured, using Go Regular which has no CJK glyphs")
	}

	opts := cloud.Options{
		Width:       cc.Width,
		Height:      cc.Height,
		MinFontSize: cc.MinFontSize,
		MaxFontSize: cc.MaxFontSize,
		Margin:      cc.Margin,
	}
	renderer, err := cloud.NewRenderer(fontData, opts, backgroundColor(cc.Background), cc.Seed)
	if err != nil {
		return err
	}
	placed, err := renderer.Render(words, mask, cloudOpts.output)
	if err != nil {
		return err
	}
	if len(placed) < len(words) {
		fmt.Fprintln(out, notice.Sprintf("%d of %d words did not fit", len(words)-len(placed), len(words)))
	}
	fmt.Fprintln(out, success.Sprintf("word cloud saved to %s", cloudOpts.output))

	if cloudOpts.top > 0 {
		table := newTable(out, "Rank", "Word", "Count")
		for i, w := range corpus.Top(freq, cloudOpts.top) {
			table.Append([]string{strconv.Itoa(i + 1), w.Word, strconv.Itoa(w.Count)})
		}
		table.Render()
	}
	return nil
}

func backgroundColor(name string) color.Color {
	if name == "white" {
		return color.White
	}
	return color.Black
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
