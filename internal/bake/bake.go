// Package bake runs the fixed texture pipeline: copy the albedo, produce the
// emissive, roughness, metallic and specular maps (from overrides or derived
// from the albedo), optionally a normal map, and finally the packed mask map.
//
// Stages run sequentially. The first failure aborts the run; files written by
// earlier stages are left on disk.
package bake

import (
	"context"
	"image"
	"os"

	"github.com/kiesman99/maskmap/internal/texture"
	"github.com/kiesman99/maskmap/pkg/raster"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Config holds the options of one bake. Override paths that are empty or do
// not exist are treated as absent.
type Config struct {
	AlbedoPath     string
	EmissivePath   string
	RoughnessPath  string
	MetallicPath   string
	SpecularPath   string
	GenerateNormal bool
	// OutputDir defaults to DefaultOutputDir(AlbedoPath).
	OutputDir string
}

// ProgressFunc receives the completed fraction in [0, 1] and a label after
// every stage.
type ProgressFunc func(fraction float64, label string)

// Progress labels.
const (
	LabelStart    = "Starting..."
	LabelAlbedo   = "Copied albedo texture"
	LabelNormal   = "Generated normal map"
	LabelMask     = "Creating mask map"
	LabelComplete = "Completed"
)

// CopiedLabel and GeneratedLabel describe a finished map stage.
func CopiedLabel(s Stage) string    { return "Copied " + s.String() + " texture" }
func GeneratedLabel(s Stage) string { return "Generated " + s.String() + " texture" }

// Result describes a finished bake.
type Result struct {
	Outputs OutputSet
	Size    image.Point
	// Copied records which map stages used an override file.
	Copied map[Stage]bool
}

// TotalSteps is the number of progress steps of a run.
func TotalSteps(generateNormal bool) int {
	if generateNormal {
		return 7
	}
	return 6
}

// Baker runs bakes against a filesystem.
type Baker struct {
	fs afero.Fs
}

// New creates a Baker. A nil fs uses the OS filesystem.
func New(fs afero.Fs) *Baker {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Baker{fs: fs}
}

type mapStage struct {
	stage    Stage
	override string
	derive   func(lum *raster.Image) (*raster.Image, error)
}

type run struct {
	fs       afero.Fs
	ctx      context.Context
	progress ProgressFunc
	step     int
	total    int
}

func (r *run) report(label string) {
	if r.progress != nil {
		r.progress(float64(r.step)/float64(r.total), label)
	}
}

func (r *run) advance(label string) {
	r.step++
	r.report(label)
}

func (r *run) checkpoint(next Stage) error {
	if err := r.ctx.Err(); err != nil {
		return errors.Wrapf(err, "bake stopped before %s", next)
	}
	return nil
}

// Run executes every stage for cfg. progress may be nil.
func (b *Baker) Run(ctx context.Context, cfg *Config, progress ProgressFunc) (*Result, error) {
	if cfg == nil || cfg.AlbedoPath == "" {
		return nil, stageError(InvalidInput, StageStart, "", errors.New("albedo path is required"))
	}
	st, err := b.fs.Stat(cfg.AlbedoPath)
	if err != nil {
		return nil, stageError(InvalidInput, StageStart, cfg.AlbedoPath, err)
	}
	if st.IsDir() {
		return nil, stageError(InvalidInput, StageStart, cfg.AlbedoPath, errors.New("is a directory"))
	}

	if ctx == nil {
		ctx = context.Background()
	}
	r := &run{fs: b.fs, ctx: ctx, progress: progress, total: TotalSteps(cfg.GenerateNormal)}

	dir := cfg.OutputDir
	if dir == "" {
		dir = DefaultOutputDir(cfg.AlbedoPath)
	}
	out := NewOutputSet(dir, BaseName(cfg.AlbedoPath), cfg.GenerateNormal)
	res := &Result{Outputs: out, Copied: make(map[Stage]bool)}

	r.report(LabelStart)
	if err := r.checkpoint(StageAlbedo); err != nil {
		return nil, err
	}

	albedo, err := raster.Load(b.fs, cfg.AlbedoPath)
	if err != nil {
		return nil, stageError(InvalidInput, StageAlbedo, cfg.AlbedoPath, err)
	}
	if albedo.Empty() {
		return nil, stageError(InvalidInput, StageAlbedo, cfg.AlbedoPath, texture.ErrEmptyImage)
	}
	res.Size = albedo.Size()

	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, stageError(EncodeError, StageAlbedo, dir, err)
	}
	if err := raster.Save(b.fs, out.Albedo, albedo); err != nil {
		return nil, stageError(EncodeError, StageAlbedo, out.Albedo, err)
	}
	r.advance(LabelAlbedo)

	lum := albedo.Luminance()
	zero := func(*raster.Image) (*raster.Image, error) {
		return raster.New(res.Size.X, res.Size.Y, raster.Gray), nil
	}
	stages := []mapStage{
		{StageEmissive, cfg.EmissivePath, zero},
		{StageRoughness, cfg.RoughnessPath, texture.DeriveRoughness},
		{StageMetallic, cfg.MetallicPath, zero},
		{StageSpecular, cfg.SpecularPath, texture.DeriveSpecular},
	}

	var maps texture.MaskSources
	slots := map[Stage]**raster.Image{
		StageEmissive:  &maps.Emissive,
		StageRoughness: &maps.Roughness,
		StageMetallic:  &maps.Metallic,
		StageSpecular:  &maps.Specular,
	}
	for _, ms := range stages {
		if err := r.checkpoint(ms.stage); err != nil {
			return nil, err
		}
		m, copied, err := r.resolveMap(ms, lum, res.Size)
		if err != nil {
			return nil, err
		}
		if err := raster.Save(b.fs, out.Path(ms.stage), m); err != nil {
			return nil, stageError(EncodeError, ms.stage, out.Path(ms.stage), err)
		}
		*slots[ms.stage] = m
		res.Copied[ms.stage] = copied
		if copied {
			r.advance(CopiedLabel(ms.stage))
		} else {
			r.advance(GeneratedLabel(ms.stage))
		}
	}

	if cfg.GenerateNormal {
		if err := r.checkpoint(StageNormal); err != nil {
			return nil, err
		}
		normal, err := texture.SynthesizeNormal(lum)
		if err != nil {
			return nil, stageError(ComputationError, StageNormal, cfg.AlbedoPath, err)
		}
		if err := raster.Save(b.fs, out.Normal, normal); err != nil {
			return nil, stageError(EncodeError, StageNormal, out.Normal, err)
		}
		r.advance(LabelNormal)
	}

	if err := r.checkpoint(StageMask); err != nil {
		return nil, err
	}
	r.report(LabelMask)
	mask, err := texture.CompositeMask(maps, res.Size)
	if err != nil {
		return nil, stageError(ComputationError, StageMask, out.Mask, err)
	}
	if err := raster.Save(b.fs, out.Mask, mask); err != nil {
		return nil, stageError(EncodeError, StageMask, out.Mask, err)
	}
	r.advance(LabelComplete)

	return res, nil
}

// resolveMap loads the override for ms if one exists on disk, otherwise
// derives the map from the albedo luminance. Copied maps are resampled to
// size and keep their channels; the mask reduces them to luminance.
func (r *run) resolveMap(ms mapStage, lum *raster.Image, size image.Point) (*raster.Image, bool, error) {
	if exists(r.fs, ms.override) {
		m, err := raster.Load(r.fs, ms.override)
		if err != nil {
			return nil, false, stageError(DecodeError, ms.stage, ms.override, err)
		}
		if m.Empty() {
			return nil, false, stageError(DecodeError, ms.stage, ms.override, texture.ErrEmptyImage)
		}
		return m.Resize(size.X, size.Y), true, nil
	}

	m, err := ms.derive(lum)
	if err != nil {
		return nil, false, stageError(ComputationError, ms.stage, "", err)
	}
	return m, false, nil
}

// exists reports whether path names something on fs. Stat errors other
// than not-exist still count as present so that the following load reports
// them.
func exists(fs afero.Fs, path string) bool {
	if path == "" {
		return false
	}
	_, err := fs.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
