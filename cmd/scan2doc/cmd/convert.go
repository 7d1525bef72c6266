package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wudi/scan2doc/fonts"
	"github.com/wudi/scan2doc/markdown"
	"github.com/wudi/scan2doc/ocr"
	"github.com/wudi/scan2doc/pipeline"
	"github.com/wudi/scan2doc/sandwich"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert one page image plus its OCR result",
	Long: `Convert reads a scanned page image and the OCR server's JSON response
for that page, and writes the selected outputs next to each other in the
output directory. With none of --md, --docx, --pdf given, all three are
generated.`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("image", "", "page image file (JPEG or PNG)")
	convertCmd.Flags().String("ocr", "", "OCR result JSON file")
	convertCmd.Flags().String("out", ".", "output directory")
	convertCmd.Flags().Bool("md", false, "write Markdown")
	convertCmd.Flags().Bool("docx", false, "write a Word document")
	convertCmd.Flags().Bool("pdf", false, "write a sandwich PDF")
	convertCmd.Flags().Float64("dpi", 150, "assumed scan resolution")
	convertCmd.Flags().String("font-url", "", "URL of a CJK-capable TrueType font")
	convertCmd.Flags().Int("font-retries", 3, "font download retries")
	_ = convertCmd.MarkFlagRequired("image")
	_ = convertCmd.MarkFlagRequired("ocr")

	for _, flag := range []string{"dpi", "font-url", "font-retries"} {
		if err := viper.BindPFlag(flag, convertCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func runConvert(cmd *cobra.Command, _ []string) error {
	imagePath, _ := cmd.Flags().GetString("image")
	ocrPath, _ := cmd.Flags().GetString("ocr")
	outDir, _ := cmd.Flags().GetString("out")
	wantMD, _ := cmd.Flags().GetBool("md")
	wantDocx, _ := cmd.Flags().GetBool("docx")
	wantPDF, _ := cmd.Flags().GetBool("pdf")

	logger := newLogger()

	pageImage, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	rawJSON, err := os.ReadFile(ocrPath)
	if err != nil {
		return fmt.Errorf("read ocr result: %w", err)
	}
	var result ocr.RawResult
	if err := json.Unmarshal(rawJSON, &result); err != nil {
		return fmt.Errorf("decode ocr result: %w", err)
	}

	sandwichOpts := []sandwich.Option{
		sandwich.WithDPI(viper.GetFloat64("dpi")),
		sandwich.WithLogger(logger),
	}
	if fontURL := viper.GetString("font-url"); fontURL != "" {
		fetcher := fonts.NewFetcher(fontURL,
			fonts.WithRetries(viper.GetInt("font-retries")),
			fonts.WithFetchLogger(logger))
		sandwichOpts = append(sandwichOpts, sandwich.WithFontFetcher(fetcher))
	}

	gen := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithSandwichBuilder(sandwich.New(sandwichOpts...)),
	)
	out, err := gen.Generate(cmd.Context(), &pipeline.Request{
		Image:    pageImage,
		Result:   &result,
		Markdown: wantMD,
		Docx:     wantDocx,
		PDF:      wantPDF,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))

	all := !wantMD && !wantDocx && !wantPDF
	if all || wantMD {
		if err := writeMarkdown(outDir, base, out); err != nil {
			return err
		}
	}
	if out.Docx != nil {
		if err := os.WriteFile(filepath.Join(outDir, base+".docx"), out.Docx, 0o644); err != nil {
			return fmt.Errorf("write docx: %w", err)
		}
	}
	if out.PDF != nil {
		if err := os.WriteFile(filepath.Join(outDir, base+".pdf"), out.PDF, 0o644); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	}
	return nil
}

// writeMarkdown writes the page Markdown plus its figure assets, rewriting
// the logical asset URIs to the relative paths the files land at.
func writeMarkdown(outDir, base string, out *pipeline.Outputs) error {
	md := out.Markdown
	if len(out.Figures) > 0 {
		assetDir := filepath.Join(outDir, "assets")
		if err := os.MkdirAll(assetDir, 0o755); err != nil {
			return fmt.Errorf("create asset dir: %w", err)
		}
		for id, data := range out.Figures {
			name := id + ".jpg"
			if err := os.WriteFile(filepath.Join(assetDir, name), data, 0o644); err != nil {
				return fmt.Errorf("write figure %s: %w", id, err)
			}
			md = strings.ReplaceAll(md, markdown.ImageScheme+id, "assets/"+name)
		}
	}
	if err := os.WriteFile(filepath.Join(outDir, base+".md"), []byte(md), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}
