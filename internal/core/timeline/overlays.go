// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package timeline

import (
	"strings"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// overlayKinds are the creative element types treated as stickers.
var overlayKinds = []string{"sticker", "overlay", "emoji", "gif"}

// BuildTextOverlay buckets the OCR pipeline's text elements.
func BuildTextOverlay(in Input) model.Timeline[model.TextOverlay] {
	out := model.Timeline[model.TextOverlay]{}
	details, ok := decodeList[model.FrameDetail](model.CategoryTextOverlay,
		in.Artifacts.Get(model.SourceCreativeAnalysis), "frame_details")
	if !ok {
		return out
	}
	for _, d := range details {
		texts := make([]model.TextElement, 0, len(d.TextElements))
		for _, t := range d.TextElements {
			if strings.TrimSpace(t.Text) == "" {
				continue
			}
			texts = append(texts, t)
		}
		if len(texts) == 0 || d.Frame < 1 {
			continue
		}
		frame := int(d.Frame)
		bucket, _ := in.Normalizer.Bucket(model.Frame(frame))
		entry := out[bucket]
		entry.Frame = keepLowestFrame(entry.Frame, frame)
		entry.Texts = append(entry.Texts, texts...)
		out[bucket] = entry
	}
	return out
}

// BuildSticker keeps the overlay-typed creative elements of the OCR pipeline.
func BuildSticker(in Input) model.Timeline[model.StickerOverlay] {
	out := model.Timeline[model.StickerOverlay]{}
	details, ok := decodeList[model.FrameDetail](model.CategorySticker,
		in.Artifacts.Get(model.SourceCreativeAnalysis), "frame_details")
	if !ok {
		return out
	}
	for _, d := range details {
		if d.Frame < 1 {
			continue
		}
		var stickers []model.Sticker
		for _, el := range d.CreativeElements {
			if !isOverlay(el) {
				continue
			}
			stickers = append(stickers, model.Sticker{
				Type:        el.Kind(),
				Description: el.Description,
				Confidence:  el.Confidence,
			})
		}
		if len(stickers) == 0 {
			continue
		}
		frame := int(d.Frame)
		bucket, _ := in.Normalizer.Bucket(model.Frame(frame))
		entry := out[bucket]
		entry.Frame = keepLowestFrame(entry.Frame, frame)
		entry.Stickers = append(entry.Stickers, stickers...)
		out[bucket] = entry
	}
	return out
}

func isOverlay(el model.CreativeElement) bool {
	for _, field := range []string{el.Type, el.Category} {
		lower := strings.ToLower(field)
		for _, kind := range overlayKinds {
			if strings.Contains(lower, kind) {
				return true
			}
		}
	}
	return false
}
