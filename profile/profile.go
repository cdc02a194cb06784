// Package profile resolves the encoder family and quality knobs for a run:
// one capability probe, a fixed quality-tier table for both families, and
// the hardware-to-software fallback mapping.
package profile

import (
	"context"
	"fmt"
	"sync"

	"mixer/command"
	"mixer/ffmpeg"
	"mixer/models"
)

// Encoder names for the two families.
const (
	HardwareEncoder = "h264_nvenc"
	SoftwareEncoder = "libx264"
)

// tier holds both families' knobs for one quality level. NVENC constant
// quality and x264 CRF do not share a numeric scale, so each tier fixes both
// rather than converting one into the other.
type tier struct {
	cq           int
	crf          int
	hwPreset     string
	swPreset     string
	audioBitrate string
}

var tiers = map[string]tier{
	models.QualityVisual:   {cq: 28, crf: 20, hwPreset: "p5", swPreset: "medium", audioBitrate: "192k"},
	models.QualityBalanced: {cq: 31, crf: 23, hwPreset: "p6", swPreset: "slow", audioBitrate: "128k"},
	models.QualitySize:     {cq: 34, crf: 26, hwPreset: "p7", swPreset: "veryslow", audioBitrate: "96k"},
}

// Resolver probes encoder availability once per run. The probe result is
// read-only afterwards and safe to share across workers without locking.
type Resolver struct {
	runner command.Runner
	tool   string

	probeOnce   sync.Once
	hasHardware bool
}

// NewResolver creates a Resolver bound to the given runner and ffmpeg
// executable.
func NewResolver(runner command.Runner, tool string) *Resolver {
	return &Resolver{runner: runner, tool: tool}
}

// HasHardware reports whether the hardware encoder is available, running the
// capability probe on first call. A failed or unparsable probe counts as
// unavailable.
func (r *Resolver) HasHardware(ctx context.Context) bool {
	r.probeOnce.Do(func() {
		output, _ := r.runner.Run(ctx, r.tool, ffmpeg.ListEncodersArgs())
		r.hasHardware = ffmpeg.ParseEncoders(output).Has(HardwareEncoder)
	})
	return r.hasHardware
}

// Resolve picks the run's encoding profile: the hardware family when it is
// both preferred and present, the software family otherwise.
func (r *Resolver) Resolve(ctx context.Context, preferHardware bool, quality string) (models.EncodingProfile, error) {
	t, ok := tiers[quality]
	if !ok {
		return models.EncodingProfile{}, fmt.Errorf("unknown quality tier %q", quality)
	}

	if preferHardware && r.HasHardware(ctx) {
		return hardwareProfile(quality, t), nil
	}
	return softwareProfile(quality, t), nil
}

// Fallback maps a hardware profile to the software profile of the same
// quality tier. Software profiles pass through unchanged.
func Fallback(p models.EncodingProfile) models.EncodingProfile {
	if !p.Hardware {
		return p
	}
	t, ok := tiers[p.Quality]
	if !ok {
		t = tiers[models.QualityBalanced]
	}
	return softwareProfile(p.Quality, t)
}

func hardwareProfile(quality string, t tier) models.EncodingProfile {
	return models.EncodingProfile{
		Hardware:     true,
		Encoder:      HardwareEncoder,
		Preset:       t.hwPreset,
		CQ:           t.cq,
		CRF:          t.crf,
		Quality:      quality,
		AudioBitrate: t.audioBitrate,
	}
}

func softwareProfile(quality string, t tier) models.EncodingProfile {
	return models.EncodingProfile{
		Hardware:     false,
		Encoder:      SoftwareEncoder,
		Preset:       t.swPreset,
		CQ:           t.cq,
		CRF:          t.crf,
		Quality:      quality,
		AudioBitrate: t.audioBitrate,
	}
}
