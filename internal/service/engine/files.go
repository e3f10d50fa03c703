package engine

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/sandevgo/ragmemory/pkg/conv"
	"github.com/sandevgo/ragmemory/pkg/log"
)

// decodeFiles turns base64 uploads into text. Files that fail to decode are
// skipped.
func decodeFiles(ctx context.Context, encoded []string) []string {
	logger := log.FromCtx(ctx)

	texts := make([]string, 0, len(encoded))
	for i, enc := range encoded {
		data, err := decodeBase64(enc)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("file is not valid base64, skipped")
			continue
		}

		text := conv.ToValidText(data)
		if conv.LooksLikeHTML(data) {
			text, err = conv.HTMLToText(text)
			if err != nil {
				logger.Warn().Err(err).Int("index", i).Msg("html conversion failed, skipped")
				continue
			}
		}
		if strings.TrimSpace(text) == "" {
			logger.Debug().Int("index", i).Msg("empty file skipped")
			continue
		}
		texts = append(texts, text)
	}
	return texts
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}
