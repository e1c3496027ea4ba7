package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"log/slog"

	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/models"
	"github.com/sashabaranov/go-openai"
)

// PortraitContentType is the format GeneratePortrait returns.
const PortraitContentType = "image/png"

// GeneratePortrait paints a party with DALL-E 3. Unlike the text helpers it returns errors, since there is no
// sensible stand-in image.
func (c *Client) GeneratePortrait(ctx context.Context, p models.Party) ([]byte, error) {
	if !c.configured {
		return nil, errMissingKey
	}
	request := openai.ImageRequest{
		Model:          openai.CreateImageModelDallE3,
		Prompt:         portraitPrompt(p),
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	}
	response, err := c.client.CreateImage(ctx, request)
	if err != nil {
		return nil, errors.Wrap(err, "create image", slog.String("party_id", p.ID))
	}
	if len(response.Data) == 0 {
		return nil, errors.New("no image returned", slog.String("party_id", p.ID))
	}
	data, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return nil, errors.Wrap(err, "decode base64 image", slog.String("party_id", p.ID))
	}
	if _, err = png.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.Wrap(err, "decode png", slog.String("party_id", p.ID))
	}
	return data, nil
}

func portraitPrompt(p models.Party) string {
	return fmt.Sprintf("A moody, painterly portrait of %s, %s, for a classic murder mystery case file. %s",
		p.Name, p.Role, p.Description)
}
