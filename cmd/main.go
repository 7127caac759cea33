package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/jaxxstorm/tagbuild"
)

// Version will be set by build process
var Version = "dev"

type CLI struct {
	Variants    []string `arg:"" optional:"" help:"Build variants to resolve (default: every variant in the config file)"`
	Repo        string   `short:"r" help:"Repository path (default: current directory)"`
	Ref         string   `help:"Reference whose history is resolved (default: HEAD)"`
	Config      string   `short:"c" type:"path" help:"YAML configuration file"`
	Pattern     []string `short:"p" help:"Tag pattern tokens (e.g. 'literal:v,build-version,separator:-,build-variant')"`
	Format      string   `short:"f" default:"json" enum:"json,name,code,semver" help:"Output format"`
	Snapshot    bool     `short:"s" help:"Output the current tag with its preceding tags"`
	Output      string   `short:"o" type:"path" help:"Write the output to a file instead of stdout"`
	LogLevel    string   `default:"warn" enum:"debug,info,warn,error" help:"Log level"`
	ShowVersion bool     `help:"Show version information" name:"version"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("tagbuild"),
		kong.Description("Resolve build versions and build numbers of build variants from Git tags"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	if c.ShowVersion {
		return c.showVersion(os.Stdout)
	}

	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}

	opts, reqs, err := c.settings(cfg)
	if err != nil {
		return err
	}

	repoPath := c.Repo
	if repoPath == "" {
		repoPath, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
	}

	history, err := tagbuild.OpenHistory(repoPath)
	if err != nil {
		return err
	}
	opts.History = history
	opts.Logger = newLogger(c.LogLevel, os.Stderr)

	resolver, err := tagbuild.NewResolver(opts)
	if err != nil {
		return err
	}

	resolutions, err := resolver.ResolveAll(reqs)
	if err != nil {
		return err
	}

	if c.Output == "" {
		return c.render(os.Stdout, resolutions)
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := c.render(f, resolutions); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// settings merges the flags over the config file
func (c *CLI) settings(cfg *fileConfig) (tagbuild.Options, []tagbuild.VariantRequest, error) {
	if c.Ref != "" {
		cfg.Ref = c.Ref
	}
	if len(c.Pattern) > 0 {
		cfg.Pattern = c.Pattern
	}

	opts, err := cfg.options()
	if err != nil {
		return tagbuild.Options{}, nil, err
	}
	if _, err := tagbuild.CompilePattern(opts.Pattern); err != nil {
		return tagbuild.Options{}, nil, err
	}

	reqs, err := cfg.requests(c.Variants)
	if err != nil {
		return tagbuild.Options{}, nil, err
	}
	return opts, reqs, nil
}

func (c *CLI) showVersion(w io.Writer) error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "tagbuild",
	}

	if c.Format == "json" {
		return json.NewEncoder(w).Encode(versionInfo)
	}

	_, err := fmt.Fprintf(w, "tagbuild version %s\n", Version)
	return err
}

func (c *CLI) render(w io.Writer, resolutions []*tagbuild.Resolution) error {
	if c.Format == "json" {
		return c.renderJSON(w, resolutions)
	}

	for _, resolution := range resolutions {
		value, err := formatBuild(resolution.Build, c.Format)
		if err != nil {
			return err
		}
		if len(resolutions) > 1 {
			value = resolution.Variant + ": " + value
		}
		if _, err := fmt.Fprintln(w, value); err != nil {
			return err
		}
	}
	return nil
}

func (c *CLI) renderJSON(w io.Writer, resolutions []*tagbuild.Resolution) error {
	if len(resolutions) == 1 {
		if c.Snapshot {
			return tagbuild.WriteSnapshot(w, resolutions[0].Snapshot)
		}
		return tagbuild.WriteBuild(w, resolutions[0].Build)
	}

	documents := make(map[string]interface{}, len(resolutions))
	for _, resolution := range resolutions {
		if c.Snapshot {
			documents[resolution.Variant] = resolution.Snapshot
		} else {
			documents[resolution.Variant] = resolution.Build
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(documents)
}

func formatBuild(build tagbuild.TagBuild, format string) (string, error) {
	switch strings.ToLower(format) {
	case "name":
		return build.VersionName(), nil
	case "code":
		return strconv.Itoa(build.VersionCode()), nil
	case "semver":
		version, err := build.SemVer()
		if err != nil {
			return "", fmt.Errorf("rendering %q as semver: %w", build.BuildVersion, err)
		}
		return version.String(), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
