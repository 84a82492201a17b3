package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "image/jpeg"
	_ "image/png"

	"github.com/jaychia/coinmeme/internal/catalog"
	"github.com/jaychia/coinmeme/internal/config"
	"github.com/jaychia/coinmeme/internal/domain"
	"github.com/jaychia/coinmeme/internal/logger"
	"github.com/jaychia/coinmeme/internal/render"
	"github.com/jaychia/coinmeme/internal/service"
	"github.com/jaychia/coinmeme/internal/topic"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "coinmeme-catalogtool",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	check := flag.Bool("check", false, "Audit slot boxes for out-of-bounds and overlaps")
	fix := flag.Bool("fix", false, "Rewrite overlapping slot boxes and save the catalog")
	annotate := flag.Bool("annotate", false, "Propose slot boxes for a template using a vision model")
	renderMeme := flag.Bool("render", false, "Generate and render a single meme")
	topicName := flag.String("topic", "", "Topic title for -render")
	templateName := flag.String("template", "", "Template name for -annotate and -render")
	out := flag.String("out", "", "Output path (catalog file for -fix/-annotate, image file for -render)")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Load the template catalog
	cat, err := catalog.Load(cfg.Catalog.SchemaPath, cfg.Catalog.ImageDir)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load template catalog")
	}
	appLogger.WithFields(logger.Fields{
		"templates": cat.Len(),
		"schema":    cfg.Catalog.SchemaPath,
	}).Info("Catalog loaded")

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	switch {
	case *check:
		runCheck(cat)
	case *fix:
		runFix(appLogger, cat, *out)
	case *annotate:
		runAnnotate(ctx, appLogger, cfg, cat, *templateName, *out)
	case *renderMeme:
		runRender(ctx, appLogger, cfg, cat, *topicName, *templateName, *out)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// runCheck prints an audit report and exits non-zero when issues exist.
func runCheck(cat *catalog.Catalog) {
	reports := catalog.Audit(cat.Templates())
	if len(reports) == 0 {
		fmt.Printf("OK: %d templates, no layout issues\n", cat.Len())
		return
	}

	for _, report := range reports {
		fmt.Printf("%s:\n", report.Template)
		for _, field := range report.OutOfBounds {
			fmt.Printf("  out of bounds: %s\n", field)
		}
		for _, ov := range report.Overlaps {
			fmt.Printf("  overlap: %s / %s (area %.4f)\n", ov.Fields[0], ov.Fields[1], ov.Area)
		}
	}
	os.Exit(1)
}

// runFix pushes apart overlapping boxes in every template and writes the
// result. Without -out the catalog file is rewritten in place.
func runFix(appLogger *logger.Logger, cat *catalog.Catalog, out string) {
	if out == "" {
		out = cat.SchemaPath()
	}

	templates := cat.Templates()
	changed := 0
	for i, t := range templates {
		fixed, moved := catalog.FixOverlaps(t)
		if moved {
			templates[i] = fixed
			changed++
			appLogger.WithField("template", t.Name).Info("Adjusted overlapping boxes")
		}
	}

	if err := catalog.Save(out, templates); err != nil {
		appLogger.WithError(err).Fatal("Failed to save catalog")
	}
	appLogger.WithFields(logger.Fields{
		"changed": changed,
		"out":     out,
	}).Info("Fix completed")
}

// runAnnotate asks the vision model for slot boxes on one template and writes
// the updated catalog.
func runAnnotate(ctx context.Context, appLogger *logger.Logger, cfg *config.Config, cat *catalog.Catalog, name, out string) {
	if name == "" {
		appLogger.Fatal("-annotate requires -template")
	}
	tmpl := cat.Get(name)
	if tmpl == nil {
		appLogger.WithField("template", name).Fatal("Template not found")
	}
	if out == "" {
		out = cat.SchemaPath()
	}

	imageData, err := os.ReadFile(tmpl.ImagePath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to read template image")
	}
	imgCfg, format, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to decode template image")
	}

	annotator := service.NewAnnotatorService(&service.AnnotatorConfig{
		Model:   cfg.Annotate.Model,
		APIKey:  cfg.Caption.APIKey,
		BaseURL: cfg.Caption.BaseURL,
	})

	boxes, err := annotator.Annotate(ctx, tmpl, imageData, format, imgCfg.Width, imgCfg.Height)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to annotate template")
	}

	for i := range tmpl.Slots {
		if box, ok := boxes[tmpl.Slots[i].Field]; ok {
			tmpl.Slots[i].Box = box
		}
	}

	if err := catalog.Save(out, cat.Templates()); err != nil {
		appLogger.WithError(err).Fatal("Failed to save catalog")
	}
	appLogger.WithFields(logger.Fields{
		"template": name,
		"boxes":    len(boxes),
		"out":      out,
	}).Info("Annotation completed")
}

// runRender runs the caption and render pipeline once and writes a JPEG.
func runRender(ctx context.Context, appLogger *logger.Logger, cfg *config.Config, cat *catalog.Catalog, topicName, templateName, out string) {
	if topicName == "" || templateName == "" {
		appLogger.Fatal("-render requires -topic and -template")
	}
	if cfg.Caption.APIKey == "" {
		appLogger.Fatal("OPENAI_API_KEY is not set; caption generation cannot work without it")
	}

	tmpl := cat.Get(templateName)
	if tmpl == nil {
		appLogger.WithField("template", templateName).Fatal("Template not found")
	}

	topics, err := topic.Load(cfg.Catalog.TopicDir)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load topics")
	}
	var selected *domain.Topic
	for i := range topics {
		if topics[i].Title == topicName {
			selected = &topics[i]
			break
		}
	}
	if selected == nil {
		appLogger.WithField("topic", topicName).Fatal("Topic not found")
	}

	captionService := service.NewCaptionService(&service.CaptionConfig{
		Model:       cfg.Caption.Model,
		APIKey:      cfg.Caption.APIKey,
		BaseURL:     cfg.Caption.BaseURL,
		Temperature: cfg.Caption.Temperature,
		MaxTokens:   cfg.Caption.MaxTokens,
		Timeout:     cfg.Caption.Timeout(),
		MaxRetries:  cfg.Caption.MaxRetries,
	})

	set, err := captionService.Generate(ctx, selected, tmpl)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to generate captions")
	}
	for _, c := range set.Captions {
		appLogger.WithFields(logger.Fields{
			"field": c.Field,
			"text":  c.Text,
		}).Info("Caption")
	}

	renderer, err := render.New(&render.Config{
		JPEGQuality: cfg.Render.JPEGQuality,
		StrokeWidth: cfg.Render.StrokeWidth,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize renderer")
	}

	meme, err := renderer.Render(tmpl, set)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to render meme")
	}
	meme.Topic = selected.Title

	if out == "" {
		out = meme.Filename()
	}
	if dir := filepath.Dir(out); dir != "." && dir != string(filepath.Separator) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			appLogger.WithError(err).Fatal("Failed to create output directory")
		}
	}
	if err := os.WriteFile(out, meme.Data, 0o644); err != nil {
		appLogger.WithError(err).Fatal("Failed to write output image")
	}

	appLogger.WithFields(logger.Fields{
		"out":   out,
		"bytes": len(meme.Data),
	}).Info("Render completed")
}
