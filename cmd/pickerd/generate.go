package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"picker/menu"
)

// Generator is the Stable Diffusion web UI txt2img client fired on Go. A nil
// Generator (no URL configured) disables generation; the daemon logs instead.
type Generator struct {
	baseURL string
	cfg     GeneratorConfig
	client  *http.Client
	logger  *slog.Logger
}

func newGenerator(cfg GeneratorConfig, logger *slog.Logger) *Generator {
	if cfg.URL == "" {
		return nil
	}
	return &Generator{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		cfg:     cfg,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
		logger:  logger,
	}
}

// BuildPrompt joins the committed selections into a generation prompt in menu
// order, skipping blank selections.
func BuildPrompt(menus []menu.Definition, selections map[string]string) string {
	parts := make([]string, 0, len(menus))
	for _, m := range menus {
		if v := selections[m.Title]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

type txt2imgRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Seed           int    `json:"seed"`
	Steps          int    `json:"steps"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
}

// Generate runs one txt2img round trip and atomically writes the first
// returned image to the configured output path.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(txt2imgRequest{
		Prompt:         prompt,
		NegativePrompt: g.cfg.NegativePrompt,
		Seed:           -1,
		Steps:          g.cfg.Steps,
		Width:          g.cfg.Width,
		Height:         g.cfg.Height,
	})
	if err != nil {
		return "", fmt.Errorf("marshal txt2img request: %w", err)
	}

	url := g.baseURL + "/sdapi/v1/txt2img"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build txt2img request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generator returned %s", resp.Status)
	}

	var out txt2imgResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode txt2img response: %w", err)
	}
	if len(out.Images) == 0 {
		return "", fmt.Errorf("generator returned no images")
	}

	img, err := base64.StdEncoding.DecodeString(out.Images[0])
	if err != nil {
		return "", fmt.Errorf("decode generated image: %w", err)
	}

	path := g.cfg.OutputPath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, img, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replace image: %w", err)
	}

	g.logger.Info("image generated", "path", path, "prompt", prompt, "bytes", len(img))
	return path, nil
}
