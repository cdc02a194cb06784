package models

import (
	"strings"
	"testing"
)

func TestNormalizationProfileTag(t *testing.T) {
	tests := []struct {
		name     string
		profile  NormalizationProfile
		expected string
	}{
		{"Portrait pad", NormalizationProfile{Width: 1080, Height: 1920, FPS: 25, Fill: FillPad}, "1080x1920_25fps_pad"},
		{"Landscape crop", NormalizationProfile{Width: 1920, Height: 1080, FPS: 30, Fill: FillCrop}, "1920x1080_30fps_crop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.Tag(); got != tt.expected {
				t.Errorf("Expected tag %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestNormalizationProfileValidate(t *testing.T) {
	valid := NormalizationProfile{Width: 1080, Height: 1920, FPS: 25, Fill: FillPad}

	tests := []struct {
		name      string
		mutate    func(p *NormalizationProfile)
		errorText string
	}{
		{"Valid pad", func(p *NormalizationProfile) {}, ""},
		{"Valid crop", func(p *NormalizationProfile) { p.Fill = FillCrop }, ""},
		{"Zero width", func(p *NormalizationProfile) { p.Width = 0 }, "width must be positive"},
		{"Negative height", func(p *NormalizationProfile) { p.Height = -720 }, "height must be positive"},
		{"Odd width", func(p *NormalizationProfile) { p.Width = 1081 }, "must be even for yuv420p"},
		{"Odd height", func(p *NormalizationProfile) { p.Height = 1921 }, "must be even for yuv420p"},
		{"Zero fps", func(p *NormalizationProfile) { p.FPS = 0 }, "fps must be positive"},
		{"Unknown fill", func(p *NormalizationProfile) { p.Fill = "stretch" }, "fill must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)

			err := p.Validate()
			if tt.errorText == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errorText) {
				t.Errorf("Expected error containing %q, got %q", tt.errorText, err.Error())
			}
		})
	}
}

func TestNormalizationProfileValidateJoinsErrors(t *testing.T) {
	p := NormalizationProfile{Width: 0, Height: 1920, FPS: 0, Fill: "stretch"}

	err := p.Validate()
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	for _, want := range []string{"width must be positive", "fps must be positive", "fill must be one of"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected combined error to contain %q, got %q", want, err.Error())
		}
	}
}

func TestEncodingProfileDescribe(t *testing.T) {
	tests := []struct {
		name     string
		profile  EncodingProfile
		expected string
	}{
		{
			"Hardware shows cq",
			EncodingProfile{Hardware: true, Encoder: "h264_nvenc", Preset: "p6", CQ: 31, CRF: 23},
			"h264_nvenc (cq 31, preset p6)",
		},
		{
			"Software shows crf",
			EncodingProfile{Hardware: false, Encoder: "libx264", Preset: "slow", CQ: 31, CRF: 23},
			"libx264 (crf 23, preset slow)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.Describe(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestIsValidQuality(t *testing.T) {
	tests := []struct {
		name     string
		quality  string
		expected bool
	}{
		{"Visual", QualityVisual, true},
		{"Balanced", QualityBalanced, true},
		{"Size", QualitySize, true},
		{"Unknown", "ultra", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidQuality(tt.quality); got != tt.expected {
				t.Errorf("Expected %v for %q, got %v", tt.expected, tt.quality, got)
			}
		})
	}
}

func TestIsValidFill(t *testing.T) {
	tests := []struct {
		name     string
		fill     string
		expected bool
	}{
		{"Pad", FillPad, true},
		{"Crop", FillCrop, true},
		{"Unknown", "stretch", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidFill(tt.fill); got != tt.expected {
				t.Errorf("Expected %v for %q, got %v", tt.expected, tt.fill, got)
			}
		})
	}
}
