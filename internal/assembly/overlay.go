package assembly

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/types"
)

const (
	visibleInkColor    = "#1a1a66"
	backgroundInkColor = "#ffffff"
)

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// applyStrategy draws every overlay of the strategy onto page 1 of the form.
// The identity strategy has no overlays and returns the form untouched.
func applyStrategy(form []byte, strategy Strategy, layout LetterLayout) ([]byte, error) {
	current := form
	for _, overlay := range strategy.Overlays {
		stamped, err := stampText(current, expandOverlayText(overlay.Text, layout), overlay)
		if err != nil {
			return nil, fmt.Errorf("overlay %q failed: %w", overlay.Text, err)
		}
		current = stamped
	}
	return current, nil
}

// stampText places one text overlay at a fixed coordinate on page 1.
func stampText(form []byte, text string, overlay Overlay) ([]byte, error) {
	color := visibleInkColor
	if overlay.Ink == InkBackground {
		color = backgroundInkColor
	}

	// pdfcpu offsets are anchored at the chosen position with +dy pointing up;
	// the coordinate tables use top-left origin with y increasing downward.
	desc := fmt.Sprintf("fontname:Helvetica, points:%d, pos:tl, off:%.0f %.0f, scale:1 abs, rot:0, fillc:%s, op:1",
		overlay.Size, overlay.X, -overlay.Y)

	wm, err := api.TextWatermark(text, desc, true, false, pdftypes.POINTS)
	if err != nil {
		return nil, fmt.Errorf("invalid watermark description: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(form), &out, []string{"1"}, wm, pdfConfig()); err != nil {
		return nil, fmt.Errorf("failed to stamp form: %w", err)
	}
	return out.Bytes(), nil
}

// pageCount returns the number of pages in a PDF.
func pageCount(pdf []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(pdf), pdfConfig())
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// firstPage extracts page 1 of a PDF.
func firstPage(pdf []byte) ([]byte, error) {
	return trimTo(pdf, 1)
}

// trimTo keeps pages 1..n, counted from the start.
func trimTo(pdf []byte, n int) ([]byte, error) {
	var out bytes.Buffer
	selected := []string{fmt.Sprintf("1-%d", n)}
	if n == 1 {
		selected = []string{"1"}
	}
	if err := api.Trim(bytes.NewReader(pdf), &out, selected, pdfConfig()); err != nil {
		return nil, fmt.Errorf("failed to trim to %d pages: %w", n, err)
	}
	return out.Bytes(), nil
}

// mergePDFs concatenates a before b into one document.
func mergePDFs(a, b []byte) ([]byte, error) {
	var out bytes.Buffer
	readers := []io.ReadSeeker{bytes.NewReader(a), bytes.NewReader(b)}
	if err := api.MergeRaw(readers, &out, false, pdfConfig()); err != nil {
		return nil, fmt.Errorf("failed to merge documents: %w", err)
	}
	return out.Bytes(), nil
}
