package services

import (
	"bytes"
	"image/png"
	"testing"

	"storefront/internal/testutil"
)

func TestGeneratePlaceholder(t *testing.T) {
	log := testutil.NewLogger(t)
	svc, err := NewImageService(log, "")
	if err != nil {
		t.Fatalf("NewImageService: %v", err)
	}

	raw, err := svc.GeneratePlaceholder("Boots", 200, 100)
	if err != nil {
		t.Fatalf("GeneratePlaceholder: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("bounds = %v, want 200x100", img.Bounds())
	}

	if _, err := svc.GeneratePlaceholder("x", 0, 100); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestResizeImage(t *testing.T) {
	log := testutil.NewLogger(t)
	svc, err := NewImageService(log, "")
	if err != nil {
		t.Fatalf("NewImageService: %v", err)
	}

	src, err := svc.GeneratePlaceholder("", 400, 400)
	if err != nil {
		t.Fatalf("GeneratePlaceholder: %v", err)
	}

	out, err := svc.ResizeImage(src, 64, 32)
	if err != nil {
		t.Fatalf("ResizeImage: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("bounds = %v, want 64x32", img.Bounds())
	}

	if _, err := svc.ResizeImage([]byte("not an image"), 10, 10); err == nil {
		t.Error("expected decode error")
	}
}
