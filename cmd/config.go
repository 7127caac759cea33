package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jaxxstorm/tagbuild"
	"gopkg.in/yaml.v3"
)

// fileConfig is the layout of tagbuild.yaml
type fileConfig struct {
	Ref      string                    `yaml:"ref"`
	Pattern  []string                  `yaml:"pattern"`
	Fallback switchConfig              `yaml:"fallback"`
	Static   *versionConfig            `yaml:"static"`
	Defaults *versionConfig            `yaml:"defaults"`
	Variants map[string]*variantConfig `yaml:"variants"`
}

type switchConfig struct {
	UseVersionsFromTag               *bool `yaml:"useVersionsFromTag"`
	UseStubsForTagAsFallback         *bool `yaml:"useStubsForTagAsFallback"`
	UseDefaultsForVersionsAsFallback *bool `yaml:"useDefaultsForVersionsAsFallback"`
}

type versionConfig struct {
	VersionName string `yaml:"versionName"`
	VersionCode int    `yaml:"versionCode"`
}

type variantConfig struct {
	switchConfig `yaml:",inline"`

	VersionName *string `yaml:"versionName"`
	VersionCode *int    `yaml:"versionCode"`
}

// loadConfig reads a config file. An empty path yields an empty config.
func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	return cfg, nil
}

func (s switchConfig) switches() tagbuild.Switches {
	return tagbuild.Switches{
		UseVersionsFromTag:               s.UseVersionsFromTag,
		UseStubsForTagAsFallback:         s.UseStubsForTagAsFallback,
		UseDefaultsForVersionsAsFallback: s.UseDefaultsForVersionsAsFallback,
	}
}

func (v *versionConfig) static() *tagbuild.StaticVersion {
	if v == nil {
		return nil
	}
	return &tagbuild.StaticVersion{VersionName: v.VersionName, VersionCode: v.VersionCode}
}

func (v *variantConfig) request(variant string) tagbuild.VariantRequest {
	req := tagbuild.VariantRequest{Variant: variant}
	if v == nil {
		return req
	}
	req.Switches = v.switches()
	if v.VersionName != nil || v.VersionCode != nil {
		req.Static = &tagbuild.StaticVersion{}
		if v.VersionName != nil {
			req.Static.VersionName = *v.VersionName
		}
		if v.VersionCode != nil {
			req.Static.VersionCode = *v.VersionCode
		}
	}
	return req
}

// options builds resolver options without a repository
func (c *fileConfig) options() (tagbuild.Options, error) {
	opts := tagbuild.Options{
		Ref: c.Ref,
		Fallback: tagbuild.FallbackConfig{
			Switches: c.Fallback.switches(),
			Static:   c.Static.static(),
			Defaults: c.Defaults.static(),
		},
	}

	if len(c.Pattern) > 0 {
		pattern, err := tagbuild.ParsePattern(c.Pattern)
		if err != nil {
			return tagbuild.Options{}, err
		}
		opts.Pattern = pattern
	}
	return opts, nil
}

// requests returns a request per variant. Without explicit variants every
// configured variant is requested in name order.
func (c *fileConfig) requests(variants []string) ([]tagbuild.VariantRequest, error) {
	if len(variants) == 0 {
		for variant := range c.Variants {
			variants = append(variants, variant)
		}
		sort.Strings(variants)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("no build variants requested")
	}

	reqs := make([]tagbuild.VariantRequest, 0, len(variants))
	for _, variant := range variants {
		reqs = append(reqs, c.Variants[variant].request(variant))
	}
	return reqs, nil
}
