package engine

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ivlev/frameline/internal/mapper"
	"github.com/ivlev/frameline/internal/scene"
	"github.com/ivlev/frameline/internal/source"
	"github.com/ivlev/frameline/internal/timeline"
)

// StartSlot переводит размещение в id слота: явный slot или время,
// прижатое к границам таймлайна.
func StartSlot(tl *timeline.Timeline, p scene.Placement) int {
	if p.Slot != nil {
		return *p.Slot
	}
	if p.Time != nil {
		return tl.SelectSlotForTime(*p.Time)
	}
	return 0
}

// Place раскладывает размещения сцены по таймлайну в порядке файла.
// Более поздние размещения перезаписывают слоты ранних.
func Place(tl *timeline.Timeline, placements []scene.Placement, dpi int, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	for i, p := range placements {
		start := StartSlot(tl, p)
		if err := placeOne(tl, p, start, dpi, log); err != nil {
			return fmt.Errorf("размещение %d (%s): %w", i, p.Input, err)
		}
	}
	return nil
}

func placeOne(tl *timeline.Timeline, p scene.Placement, start, dpi int, log *zap.Logger) error {
	switch {
	case source.IsGIF(p.Input):
		asset, err := source.DecodeGIFFile(p.Input)
		if err != nil {
			return err
		}
		_, span := mapper.Apply(asset, tl, start)
		log.Debug("gif placed",
			zap.String("input", p.Input),
			zap.Int("start", span.Start),
			zap.Int("span", span.SpanSlots),
			zap.Int("available", span.Available),
			zap.Int("frames", len(asset.Frames)))

	case source.IsPDF(p.Input):
		doc, err := source.OpenPDF(p.Input, dpi)
		if err != nil {
			return err
		}
		pages := doc.PageCount()
		hold := p.Slots()
		for i := 0; i < pages; i++ {
			page := doc.Page(i)
			for k := 0; k < hold; k++ {
				tl.AssignImage(start+i*hold+k, page)
			}
		}
		// страницы открывают документ сами при загрузке
		doc.Close()
		log.Debug("pdf placed", zap.String("input", p.Input), zap.Int("start", start), zap.Int("pages", pages))

	case source.IsStill(p.Input):
		if _, err := os.Stat(p.Input); err != nil {
			return err
		}
		img := &source.File{Path: p.Input}
		for k := 0; k < p.Slots(); k++ {
			tl.AssignImage(start+k, img)
		}
		log.Debug("still placed", zap.String("input", p.Input), zap.Int("start", start), zap.Int("hold", p.Slots()))

	default:
		return fmt.Errorf("неподдерживаемый тип файла")
	}
	return nil
}
