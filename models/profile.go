package models

import (
	"fmt"
	"strings"
)

// Fill modes for bringing a source to the target aspect ratio.
const (
	FillPad  = "pad"  // letterbox/pillarbox with black bars
	FillCrop = "crop" // center-crop the overflowing dimension
)

// Quality tiers selecting the encoder's rate-control knobs.
const (
	QualityVisual   = "visual"   // favor fidelity
	QualityBalanced = "balanced" // middle ground
	QualitySize     = "size"     // favor small files
)

// QualityValues returns the accepted quality tiers.
func QualityValues() []string {
	return []string{QualityVisual, QualityBalanced, QualitySize}
}

// IsValidQuality checks if the given quality tier is supported.
func IsValidQuality(q string) bool {
	for _, v := range QualityValues() {
		if q == v {
			return true
		}
	}
	return false
}

// FillValues returns the accepted fill modes.
func FillValues() []string {
	return []string{FillPad, FillCrop}
}

// IsValidFill checks if the given fill mode is supported.
func IsValidFill(fill string) bool {
	for _, v := range FillValues() {
		if fill == v {
			return true
		}
	}
	return false
}

// NormalizationProfile describes the uniform format every cached segment is
// converted to. It is fixed for an entire run: segments built under different
// profiles must never meet in one concatenation.
type NormalizationProfile struct {
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	FPS    int    `json:"fps" yaml:"fps"`
	Fill   string `json:"fill" yaml:"fill"`
}

// Tag renders the profile as a filename-safe identity string,
// e.g. "1080x1920_25fps_pad". Cache files embed it so a profile change
// invalidates old entries by name.
func (p NormalizationProfile) Tag() string {
	return fmt.Sprintf("%dx%d_%dfps_%s", p.Width, p.Height, p.FPS, p.Fill)
}

// Validate checks if the profile is usable.
func (p NormalizationProfile) Validate() error {
	var errors []string

	if p.Width <= 0 {
		errors = append(errors, "width must be positive")
	}
	if p.Height <= 0 {
		errors = append(errors, "height must be positive")
	}
	if p.Width%2 != 0 || p.Height%2 != 0 {
		errors = append(errors, "width and height must be even for yuv420p output")
	}
	if p.FPS <= 0 {
		errors = append(errors, "fps must be positive")
	}
	if !IsValidFill(p.Fill) {
		errors = append(errors, fmt.Sprintf("fill must be one of: %s", strings.Join(FillValues(), ", ")))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}
	return nil
}

// EncodingProfile is the resolved encoder family plus its codec parameters.
//
// Resolved once per run; a job that hits a hardware-encoder failure swaps in
// the software equivalent for itself only, so the field set covers both
// families: CQ drives NVENC rate control, CRF drives x264.
type EncodingProfile struct {
	Hardware     bool   `json:"hardware"`
	Encoder      string `json:"encoder"`       // h264_nvenc or libx264
	Preset       string `json:"preset"`        // p1..p7 for NVENC, x264 preset names otherwise
	CQ           int    `json:"cq"`            // NVENC constant quality, used when Hardware
	CRF          int    `json:"crf"`           // x264 constant rate factor, used when !Hardware
	Quality      string `json:"quality"`       // tier name the knobs were derived from
	AudioBitrate string `json:"audio_bitrate"` // AAC bitrate for the final mux, e.g. "128k"
}

// Describe renders the profile for logs, e.g. "h264_nvenc (cq 31, preset p6)".
func (p EncodingProfile) Describe() string {
	if p.Hardware {
		return fmt.Sprintf("%s (cq %d, preset %s)", p.Encoder, p.CQ, p.Preset)
	}
	return fmt.Sprintf("%s (crf %d, preset %s)", p.Encoder, p.CRF, p.Preset)
}

// CacheEntry is one published segment in the clip cache: the normalized,
// audio-free intermediate a concatenation consumes.
type CacheEntry struct {
	Path    string               `json:"path"`
	Key     string               `json:"key"` // "<stem>__<trimKey>"
	Profile NormalizationProfile `json:"profile"`
}
