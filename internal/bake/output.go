package bake

import (
	"path/filepath"
	"strings"
)

// OutputDirSuffix is appended to the albedo base name to form the default
// output directory.
const OutputDirSuffix = "_bakin_textures"

// Stage identifies one step of a bake.
type Stage int

const (
	StageStart Stage = iota
	StageAlbedo
	StageEmissive
	StageRoughness
	StageMetallic
	StageSpecular
	StageNormal
	StageMask
	StageComplete
)

var stageNames = [...]string{
	StageStart:     "start",
	StageAlbedo:    "albedo",
	StageEmissive:  "emissive",
	StageRoughness: "roughness",
	StageMetallic:  "metallic",
	StageSpecular:  "specular",
	StageNormal:    "normal",
	StageMask:      "mask",
	StageComplete:  "complete",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// DefaultOutputDir returns <dir of albedo>/<base>_bakin_textures.
func DefaultOutputDir(albedoPath string) string {
	return filepath.Join(filepath.Dir(albedoPath), BaseName(albedoPath)+OutputDirSuffix)
}

// OutputSet lists the files written by one bake. Normal is empty when normal
// map generation is disabled.
type OutputSet struct {
	Dir       string
	Albedo    string
	Emissive  string
	Roughness string
	Metallic  string
	Specular  string
	Normal    string
	Mask      string
}

// NewOutputSet names every output <dir>/<base>_<stage>.png.
func NewOutputSet(dir, base string, normal bool) OutputSet {
	name := func(s Stage) string {
		return filepath.Join(dir, base+"_"+s.String()+".png")
	}
	o := OutputSet{
		Dir:       dir,
		Albedo:    name(StageAlbedo),
		Emissive:  name(StageEmissive),
		Roughness: name(StageRoughness),
		Metallic:  name(StageMetallic),
		Specular:  name(StageSpecular),
		Mask:      name(StageMask),
	}
	if normal {
		o.Normal = name(StageNormal)
	}
	return o
}

// Path returns the output file for stage s, or "" if s writes nothing.
func (o OutputSet) Path(s Stage) string {
	switch s {
	case StageAlbedo:
		return o.Albedo
	case StageEmissive:
		return o.Emissive
	case StageRoughness:
		return o.Roughness
	case StageMetallic:
		return o.Metallic
	case StageSpecular:
		return o.Specular
	case StageNormal:
		return o.Normal
	case StageMask:
		return o.Mask
	}
	return ""
}

// Files returns every output path in the order they are written.
func (o OutputSet) Files() []string {
	files := []string{o.Albedo, o.Emissive, o.Roughness, o.Metallic, o.Specular}
	if o.Normal != "" {
		files = append(files, o.Normal)
	}
	return append(files, o.Mask)
}
